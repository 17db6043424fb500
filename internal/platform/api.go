package platform

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
)

// Profile is the public profile of a platform user.
type Profile struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// User is the account record returned by user/<id>.
type User struct {
	ID      string  `json:"_id"`
	Profile Profile `json:"profile"`
}

// Contest is the subset of the contest record the tools need.
type Contest struct {
	ID    string `json:"_id"`
	Title string `json:"title"`
}

// ProblemSettings holds per-contest problem settings.
type ProblemSettings struct {
	Slug string `json:"slug"`
}

// FormFile is one file slot of a form submission.
type FormFile struct {
	Path  string `json:"path"`
	Label string `json:"label"`
}

// FormSubmit configures form submissions.
type FormSubmit struct {
	Files []FormFile `json:"files"`
}

// SubmitConfig lists the submission methods a problem accepts.
type SubmitConfig struct {
	Upload    bool        `json:"upload,omitempty"`
	ZipFolder bool        `json:"zipFolder,omitempty"`
	Form      *FormSubmit `json:"form,omitempty"`
}

const (
	SubmitUpload    = "upload"
	SubmitZipFolder = "zipFolder"
	SubmitForm      = "form"
)

// Methods returns the enabled submission methods in a stable order.
func (s SubmitConfig) Methods() []string {
	var methods []string
	if s.Upload {
		methods = append(methods, SubmitUpload)
	}
	if s.ZipFolder {
		methods = append(methods, SubmitZipFolder)
	}
	if s.Form != nil {
		methods = append(methods, SubmitForm)
	}
	return methods
}

// ProblemConfig is the judge facing configuration of a problem.
type ProblemConfig struct {
	Submit SubmitConfig `json:"submit"`
}

// Problem is a problem as seen from a contest or on its own.
type Problem struct {
	ID          string          `json:"_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Settings    ProblemSettings `json:"settings"`
	Config      ProblemConfig   `json:"config"`
}

// ProblemContent is the statement payload of problem/<id>/content.
type ProblemContent struct {
	Title       string   `json:"title,omitempty"`
	Slug        string   `json:"slug,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Description string   `json:"description"`
}

// ProblemData registers an uploaded data archive.
type ProblemData struct {
	Hash        string      `json:"hash"`
	Description string      `json:"description"`
	Config      interface{} `json:"config"`
}

// SolutionTicket is returned when a solution is created.
type SolutionTicket struct {
	SolutionID string `json:"solutionId"`
	UploadURL  string `json:"uploadUrl"`
}

// Solution is one entry of a contest's solution listing.
type Solution struct {
	ID          string  `json:"_id"`
	ProblemID   string  `json:"problemId"`
	UserID      string  `json:"userId"`
	Score       float64 `json:"score"`
	SubmittedAt int64   `json:"submittedAt"`
}

// RanklistParticipant is one row of a ranklist.
type RanklistParticipant struct {
	UserID string `json:"userId"`
	Rank   int    `json:"rank"`
}

// Ranklist is the downloaded ranklist document.
type Ranklist struct {
	Participant struct {
		List []RanklistParticipant `json:"list"`
	} `json:"participant"`
}

type urlResponse struct {
	URL string `json:"url"`
}

func seg(s string) string {
	return url.PathEscape(s)
}

// UserProfile fetches user/<id>/profile.
func (c *Client) UserProfile(ctx context.Context, userID string) (Profile, error) {
	var profile Profile
	err := c.GetJSON(ctx, "user/"+seg(userID)+"/profile", nil, &profile)
	return profile, err
}

// User fetches user/<id>.
func (c *Client) User(ctx context.Context, userID string) (User, error) {
	var user User
	err := c.GetJSON(ctx, "user/"+seg(userID), nil, &user)
	return user, err
}

// Contest fetches contest/<id>.
func (c *Client) Contest(ctx context.Context, contestID string) (Contest, error) {
	var contest Contest
	err := c.GetJSON(ctx, "contest/"+seg(contestID), nil, &contest)
	return contest, err
}

// ContestProblems lists the problems of a contest.
func (c *Client) ContestProblems(ctx context.Context, contestID string) ([]Problem, error) {
	var problems []Problem
	err := c.GetJSON(ctx, "contest/"+seg(contestID)+"/problem", nil, &problems)
	return problems, err
}

// Problem fetches a problem, through the contest when contestID is set.
func (c *Client) Problem(ctx context.Context, contestID, problemID string) (Problem, error) {
	var problem Problem
	path := "problem/" + seg(problemID)
	if contestID != "" {
		path = "contest/" + seg(contestID) + "/problem/" + seg(problemID)
	}
	err := c.GetJSON(ctx, path, nil, &problem)
	return problem, err
}

// UpdateProblemContent replaces the statement of a problem.
func (c *Client) UpdateProblemContent(ctx context.Context, problemID string, content ProblemContent) error {
	return c.PatchJSON(ctx, "problem/"+seg(problemID)+"/content", content, nil)
}

// DataUploadURL returns the presigned upload URL for a data archive.
func (c *Client) DataUploadURL(ctx context.Context, problemID, hash string) (string, error) {
	var resp urlResponse
	err := c.GetJSON(ctx, "problem/"+seg(problemID)+"/data/"+seg(hash)+"/url/upload", nil, &resp)
	return resp.URL, err
}

// CreateProblemData registers an uploaded archive.
func (c *Client) CreateProblemData(ctx context.Context, problemID string, data ProblemData) error {
	return c.PostJSON(ctx, "problem/"+seg(problemID)+"/data", data, nil)
}

// SetDataHash marks the archive with hash as the current data.
func (c *Client) SetDataHash(ctx context.Context, problemID, hash string) error {
	return c.PostJSON(ctx, "problem/"+seg(problemID)+"/data/setDataHash", map[string]string{"hash": hash}, nil)
}

// RejudgeAll rejudges every solution of a problem and returns how many changed.
func (c *Client) RejudgeAll(ctx context.Context, problemID string) (int, error) {
	var resp struct {
		ModifiedCount int `json:"modifiedCount"`
	}
	err := c.PostJSON(ctx, "problem/"+seg(problemID)+"/admin/rejudge-all", map[string]bool{"pull": true}, &resp)
	return resp.ModifiedCount, err
}

// CreateSolution announces a solution archive and returns where to upload it.
func (c *Client) CreateSolution(ctx context.Context, contestID, problemID, hash string, size int64) (SolutionTicket, error) {
	var ticket SolutionTicket
	path := "problem/" + seg(problemID) + "/solution"
	if contestID != "" {
		path = "contest/" + seg(contestID) + "/problem/" + seg(problemID) + "/solution"
	}
	body := struct {
		Hash string `json:"hash"`
		Size int64  `json:"size"`
	}{Hash: hash, Size: size}
	err := c.PostJSON(ctx, path, body, &ticket)
	return ticket, err
}

// SubmitSolution submits an uploaded solution for judging.
func (c *Client) SubmitSolution(ctx context.Context, contestID, problemID, solutionID string) error {
	path := "problem/" + seg(problemID) + "/solution/" + seg(solutionID) + "/submit"
	if contestID != "" {
		path = "contest/" + seg(contestID) + "/solution/" + seg(solutionID) + "/submit"
	}
	var ack json.RawMessage
	return c.PostJSON(ctx, path, struct{}{}, &ack)
}

// RanklistDownloadURL returns the presigned URL of a ranklist document.
func (c *Client) RanklistDownloadURL(ctx context.Context, contestID, key string) (string, error) {
	var resp urlResponse
	err := c.GetJSON(ctx, "contest/"+seg(contestID)+"/ranklist/"+seg(key)+"/url/download", nil, &resp)
	return resp.URL, err
}

// ContestSolutions returns one page of a user's solutions in a contest.
func (c *Client) ContestSolutions(ctx context.Context, contestID, userID string, page, perPage int) ([]Solution, error) {
	query := url.Values{}
	query.Set("userId", userID)
	query.Set("page", strconv.Itoa(page))
	query.Set("perPage", strconv.Itoa(perPage))
	var resp struct {
		Items []Solution `json:"items"`
	}
	err := c.GetJSON(ctx, "contest/"+seg(contestID)+"/solution", query, &resp)
	return resp.Items, err
}

// SolutionDataURL returns the download URL of a solution archive.
func (c *Client) SolutionDataURL(ctx context.Context, contestID, solutionID string) (string, error) {
	var resp urlResponse
	err := c.GetJSON(ctx, "contest/"+seg(contestID)+"/solution/"+seg(solutionID)+"/data/download", nil, &resp)
	return resp.URL, err
}
