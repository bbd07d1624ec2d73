package exam

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/mahmoud01140/onlineEdu/core"
)

// Exam types
const (
	TypeStudent = "student"
	TypeTeacher = "teacher"
	TypeElder   = "elder"
	TypeLesson  = "lesson"
)

const OptionsPerQuestion = 4

var Types = []string{TypeStudent, TypeTeacher, TypeElder, TypeLesson}

type Question struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
}

type Exam struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	ExamType     string     `json:"examType"`
	LessonID     string     `json:"lesson,omitempty"`
	Questions    []Question `json:"questions"`
	PassingScore int        `json:"passingScore"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// IsLevelExam reports whether the exam is a placement exam: any singleton, non-lesson type.
func (e Exam) IsLevelExam() bool {
	return e.ExamType != TypeLesson
}

type NewExam struct {
	Title        string     `json:"title"`
	ExamType     string     `json:"examType"`
	LessonID     string     `json:"lesson"`
	Questions    []Question `json:"questions"`
	PassingScore int        `json:"passingScore"`
}

// UpdateExam is a partial update; nil fields are left unchanged.
type UpdateExam struct {
	Title        *string     `json:"title"`
	ExamType     *string     `json:"examType"`
	LessonID     *string     `json:"lesson"`
	Questions    *[]Question `json:"questions"`
	PassingScore *int        `json:"passingScore"`
}

type QueryFilter struct {
	ExamType string `query:"examType"`
	LessonID string `query:"lesson"`
}

type QuestionResult struct {
	Question      string `json:"question"`
	UserAnswer    *int   `json:"userAnswer"`
	CorrectAnswer int    `json:"correctAnswer"`
	IsCorrect     bool   `json:"isCorrect"`
}

// ScoreReport is the outcome of a submission.
type ScoreReport struct {
	ExamID         string           `json:"examId"`
	Score          int              `json:"score"`
	TotalQuestions int              `json:"totalQuestions"`
	PassingScore   int              `json:"passingScore"`
	IsPassed       bool             `json:"isPassed"`
	Results        []QuestionResult `json:"results"`
}

// Score grades answers against the exam questions, in order.
// Missing and out of range answers (negative means unanswered) are incorrect.
func Score(e Exam, answers []int) ScoreReport {
	rep := ScoreReport{
		ExamID:         e.ID,
		TotalQuestions: len(e.Questions),
		PassingScore:   e.PassingScore,
		Results:        make([]QuestionResult, 0, len(e.Questions)),
	}
	for i, q := range e.Questions {
		res := QuestionResult{Question: q.Question, CorrectAnswer: q.CorrectAnswer}
		if i < len(answers) && answers[i] >= 0 && answers[i] < len(q.Options) {
			ans := answers[i]
			res.UserAnswer = &ans
			res.IsCorrect = ans == q.CorrectAnswer
		}
		if res.IsCorrect {
			rep.Score++
		}
		rep.Results = append(rep.Results, res)
	}
	rep.IsPassed = rep.Score >= rep.PassingScore
	return rep
}

func invalid(field, msg string, args ...interface{}) error {
	msg = fmt.Sprintf(msg, args...)
	return core.NewValidationError(errors.New(msg), core.FieldError{Field: field, Error: msg})
}

// validate checks an exam definition and stops at the first problem found.
func (e *Exam) validate() error {
	if e.Title == "" {
		return invalid("title", "title is required")
	}
	if !core.StringInSlice(e.ExamType, Types) {
		return invalid("examType", "examType must be one of: %s", strings.Join(Types, ", "))
	}
	if e.ExamType == TypeLesson && e.LessonID == "" {
		return invalid("lesson", "lesson is required for lesson exams")
	}
	if len(e.Questions) == 0 {
		return invalid("questions", "at least one question is required")
	}
	for i, q := range e.Questions {
		if err := validateQuestion(i, q); err != nil {
			return err
		}
	}
	if n := len(e.Questions); e.PassingScore < 1 || e.PassingScore > n {
		return invalid("passingScore", "passingScore must be between 1 and %d", n)
	}
	return nil
}

func validateQuestion(i int, q Question) error {
	field := fmt.Sprintf("questions[%d]", i)
	if q.Question == "" {
		return invalid(field+".question", "question %d: text is required", i+1)
	}
	if len(q.Options) != OptionsPerQuestion {
		return invalid(field+".options", "question %d: exactly %d options are required", i+1, OptionsPerQuestion)
	}
	for j, opt := range q.Options {
		if opt == "" {
			return invalid(fmt.Sprintf("%s.options[%d]", field, j), "question %d: option %d cannot be empty", i+1, j+1)
		}
	}
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= OptionsPerQuestion {
		return invalid(field+".correctAnswer", "question %d: correctAnswer must be between 0 and %d", i+1, OptionsPerQuestion-1)
	}
	return nil
}

func cleanQuestions(qs []Question) []Question {
	res := make([]Question, len(qs))
	for i, q := range qs {
		res[i] = Question{Question: core.CleanString(q.Question), CorrectAnswer: q.CorrectAnswer}
		res[i].Options = make([]string, len(q.Options))
		for j, opt := range q.Options {
			res[i].Options[j] = core.CleanString(opt)
		}
	}
	return res
}
