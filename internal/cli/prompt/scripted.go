package prompt

import "fmt"

// Scripted answers prompts from a fixed list. It records every question.
type Scripted struct {
	Answers []string
	Asked   []string
}

func (s *Scripted) next(label string) (string, error) {
	s.Asked = append(s.Asked, label)
	if len(s.Answers) == 0 {
		return "", fmt.Errorf("unexpected prompt %q", label)
	}
	answer := s.Answers[0]
	s.Answers = s.Answers[1:]
	return answer, nil
}

func (s *Scripted) Text(label string) (string, error) {
	return s.next(label)
}

func (s *Scripted) Confirm(label string) (bool, error) {
	answer, err := s.next(label)
	if err != nil {
		return false, err
	}
	return ParseConfirm(answer), nil
}

func (s *Scripted) Select(label string, options []string) (string, error) {
	answer, err := s.next(label)
	if err != nil {
		return "", err
	}
	choice, ok := MatchOption(answer, options)
	if !ok {
		return "", fmt.Errorf("%q is not one of %v", answer, options)
	}
	return choice, nil
}
