// Package identity maps a platform user, optionally scoped to a contest, onto
// the name and labels of its editor container.
package identity

import (
	"regexp"
	"strings"

	pkgerrors "vscsfarm/pkg/errors"
)

const (
	namePrefix    = "vscs_"
	userPrefix    = namePrefix + "user_"
	contestPrefix = namePrefix + "contest_"

	LabelUserID    = "userId"
	LabelContestID = "contestId"
)

// Contest ids carry no underscore so the contest segment of a name is
// delimited by the first underscore after the prefix.
var (
	userIDPattern    = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)
	contestIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9.-]*$`)
)

// Kind tags the two container flavours.
type Kind int

const (
	KindUser Kind = iota + 1
	KindContest
)

func (k Kind) String() string {
	switch k {
	case KindUser:
		return "user"
	case KindContest:
		return "contest"
	default:
		return "unknown"
	}
}

// Identity is either User{userId} or Contest{contestId, userId}. The zero
// value is invalid; build one with User, Contest, New or Parse.
type Identity struct {
	kind      Kind
	userID    string
	contestID string
}

// Label is one runtime label; a slice keeps argument order stable.
type Label struct {
	Key   string
	Value string
}

// User builds a contest-less identity.
func User(userID string) (Identity, error) {
	if err := ValidateUserID(userID); err != nil {
		return Identity{}, err
	}
	return Identity{kind: KindUser, userID: userID}, nil
}

// Contest builds a contest-scoped identity.
func Contest(contestID, userID string) (Identity, error) {
	if err := ValidateUserID(userID); err != nil {
		return Identity{}, err
	}
	if err := ValidateContestID(contestID); err != nil {
		return Identity{}, err
	}
	return Identity{kind: KindContest, userID: userID, contestID: contestID}, nil
}

// New picks User or Contest depending on whether contestID is set.
func New(userID, contestID string) (Identity, error) {
	if contestID == "" {
		return User(userID)
	}
	return Contest(contestID, userID)
}

func (i Identity) Kind() Kind { return i.kind }

func (i Identity) UserID() string { return i.userID }

func (i Identity) ContestID() string { return i.contestID }

func (i Identity) Valid() bool { return i.kind == KindUser || i.kind == KindContest }

func (i Identity) String() string { return i.Name() }

// Name is the canonical container name.
func (i Identity) Name() string {
	switch i.kind {
	case KindUser:
		return userPrefix + i.userID
	case KindContest:
		return contestPrefix + i.contestID + "_" + i.userID
	default:
		return ""
	}
}

// Labels are attached at creation and used to list a user's containers.
func (i Identity) Labels() []Label {
	labels := []Label{{Key: LabelUserID, Value: i.userID}}
	if i.kind == KindContest {
		labels = append(labels, Label{Key: LabelContestID, Value: i.contestID})
	}
	return labels
}

// Parse is the inverse of Name.
func Parse(name string) (Identity, error) {
	name = strings.TrimPrefix(name, "/")
	switch {
	case strings.HasPrefix(name, userPrefix):
		id, err := User(strings.TrimPrefix(name, userPrefix))
		if err != nil {
			return Identity{}, invalidName(name)
		}
		return id, nil
	case strings.HasPrefix(name, contestPrefix):
		contestID, userID, ok := strings.Cut(strings.TrimPrefix(name, contestPrefix), "_")
		if !ok {
			return Identity{}, invalidName(name)
		}
		id, err := Contest(contestID, userID)
		if err != nil {
			return Identity{}, invalidName(name)
		}
		return id, nil
	default:
		return Identity{}, invalidName(name)
	}
}

// ValidateUserID checks a user id taken from an access token.
func ValidateUserID(userID string) error {
	if userID == "" {
		return pkgerrors.ValidationError(LabelUserID, "is required")
	}
	if !userIDPattern.MatchString(userID) {
		return pkgerrors.ValidationError(LabelUserID, "must contain only letters, digits, '_', '.' or '-'")
	}
	return nil
}

// ValidateContestID checks a caller supplied contest id.
func ValidateContestID(contestID string) error {
	if contestID == "" {
		return pkgerrors.ValidationError(LabelContestID, "is required")
	}
	if !contestIDPattern.MatchString(contestID) {
		return pkgerrors.ValidationError(LabelContestID, "must contain only letters, digits, '.' or '-'")
	}
	return nil
}

func invalidName(name string) error {
	return pkgerrors.New(pkgerrors.ContainerNameInvalid).WithDetail("name", name)
}
