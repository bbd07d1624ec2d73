package exam

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/mahmoud01140/onlineEdu/core"
	"github.com/mahmoud01140/onlineEdu/core/lesson"
	"github.com/mahmoud01140/onlineEdu/core/user"
)

var (
	// errors
	ErrNotFound      = core.NewNotFoundError("Exam")
	ErrDuplicateType = core.NewConflictError("duplicate_type", "An exam of this type already exists")
	ErrAlreadyTaken  = core.NewConflictError("already_taken", "You have already taken this exam")
)

type (
	Repository interface {
		// CreateExam fails with ErrDuplicateType when a non-lesson exam of the same type exists.
		CreateExam(ctx context.Context, e Exam) (Exam, error)
		GetExam(ctx context.Context, id string) (Exam, error)
		// GetExamByType returns the singleton exam of a non-lesson type.
		GetExamByType(ctx context.Context, examType string) (Exam, error)
		// QueryExams applies AND operation on available QueryFilter fields, newest first.
		QueryExams(ctx context.Context, filter *QueryFilter) ([]Exam, error)
		// UpdateExam fails with ErrDuplicateType when the new type is already taken.
		UpdateExam(ctx context.Context, e Exam) (Exam, error)
		DeleteExam(ctx context.Context, id string) error
		DeleteExamsByLesson(ctx context.Context, lessonID string) error
	}

	// ResultRecorder writes exam outcomes into the identity store.
	ResultRecorder interface {
		GetUser(ctx context.Context, filter user.GetFilter) (user.User, error)
		AddExamResult(ctx context.Context, userID string, res user.ExamResult, passedLevelExam bool) error
		RemoveExamResult(ctx context.Context, userID, examID string) error
	}

	LessonFinder interface {
		GetLesson(ctx context.Context, id string) (lesson.Lesson, error)
	}

	Service struct {
		conf    *core.Config
		repo    Repository
		users   ResultRecorder
		lessons LessonFinder
		tx      core.Transactor
		mailSvc core.EmailService
		now     func() time.Time // mockable
	}
)

func NewService(
	conf *core.Config,
	repo Repository,
	users ResultRecorder,
	lessons LessonFinder,
	tx core.Transactor,
	mailSvc core.EmailService,
) *Service {
	return &Service{conf: conf, repo: repo, users: users, lessons: lessons, tx: tx, mailSvc: mailSvc, now: time.Now}
}

func (svc *Service) checkLesson(ctx context.Context, e Exam) error {
	if e.ExamType != TypeLesson {
		return nil
	}
	_, err := svc.lessons.GetLesson(ctx, e.LessonID)
	return err
}

// checkTypeAvailable fails early when a singleton type is taken by another exam.
// The storage unique index stays the authority under concurrent writes.
func (svc *Service) checkTypeAvailable(ctx context.Context, e Exam) error {
	if !e.IsLevelExam() {
		return nil
	}
	other, err := svc.repo.GetExamByType(ctx, e.ExamType)
	switch {
	case errors.Cause(err) == ErrNotFound:
		return nil
	case err != nil:
		return errors.Wrap(err, "checking exam type")
	case other.ID != e.ID:
		return ErrDuplicateType
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, ne NewExam) (Exam, error) {
	now := svc.now().UTC()
	e := Exam{
		Title:        core.CleanString(ne.Title),
		ExamType:     core.CleanString(ne.ExamType, true /* lower */),
		LessonID:     ne.LessonID,
		Questions:    cleanQuestions(ne.Questions),
		PassingScore: ne.PassingScore,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if e.ExamType != TypeLesson {
		e.LessonID = ""
	}
	if err := e.validate(); err != nil {
		return Exam{}, err
	}
	if err := svc.checkLesson(ctx, e); err != nil {
		return Exam{}, err
	}
	if err := svc.checkTypeAvailable(ctx, e); err != nil {
		return Exam{}, err
	}

	e, err := svc.repo.CreateExam(ctx, e)
	if err != nil {
		if errors.Cause(err) == ErrDuplicateType {
			return Exam{}, ErrDuplicateType
		}
		return Exam{}, errors.Wrap(err, "creating exam")
	}
	return e, nil
}

func (svc *Service) Update(ctx context.Context, id string, ue UpdateExam) (Exam, error) {
	e, err := svc.repo.GetExam(ctx, id)
	if err != nil {
		return Exam{}, err
	}

	if ue.Title != nil {
		e.Title = core.CleanString(*ue.Title)
	}
	if ue.ExamType != nil {
		e.ExamType = core.CleanString(*ue.ExamType, true /* lower */)
	}
	if ue.LessonID != nil {
		e.LessonID = *ue.LessonID
	}
	if e.ExamType != TypeLesson {
		e.LessonID = ""
	}
	if ue.Questions != nil {
		e.Questions = cleanQuestions(*ue.Questions)
	}
	if ue.PassingScore != nil {
		e.PassingScore = *ue.PassingScore
	}
	if err := e.validate(); err != nil {
		return Exam{}, err
	}
	if err := svc.checkLesson(ctx, e); err != nil {
		return Exam{}, err
	}
	if err := svc.checkTypeAvailable(ctx, e); err != nil {
		return Exam{}, err
	}
	e.UpdatedAt = svc.now().UTC()

	e, err = svc.repo.UpdateExam(ctx, e)
	if err != nil {
		if errors.Cause(err) == ErrDuplicateType {
			return Exam{}, ErrDuplicateType
		}
		return Exam{}, errors.Wrap(err, "updating exam")
	}
	return e, nil
}

// Delete removes the exam and the deleting actor's own history entry for it.
// Other actors' entries are kept as an audit trail.
func (svc *Service) Delete(ctx context.Context, id, actorID string) error {
	if _, err := svc.repo.GetExam(ctx, id); err != nil {
		return err
	}
	return svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := svc.repo.DeleteExam(ctx, id); err != nil {
			return errors.Wrap(err, "deleting exam")
		}
		if actorID == "" {
			return nil
		}
		return errors.Wrap(svc.users.RemoveExamResult(ctx, actorID, id), "detaching exam result")
	})
}

// Submit grades answers and records the result. An actor may take an exam only once.
// Any level exam submission sets the actor's level exam flag, whatever the outcome.
func (svc *Service) Submit(ctx context.Context, examID, actorID string, answers []int) (ScoreReport, error) {
	e, err := svc.repo.GetExam(ctx, examID)
	if err != nil {
		return ScoreReport{}, err
	}
	rep := Score(e, answers)

	res := user.ExamResult{ExamID: e.ID, Result: rep.Score, TakenAt: svc.now().UTC()}
	if err := svc.users.AddExamResult(ctx, actorID, res, e.IsLevelExam()); err != nil {
		switch errors.Cause(err) {
		case user.ErrResultExists:
			return ScoreReport{}, ErrAlreadyTaken
		case user.ErrNotFound:
			return ScoreReport{}, user.ErrNotFound
		}
		return ScoreReport{}, errors.Wrap(err, "recording exam result")
	}

	svc.sendResultMail(ctx, actorID, e, rep)
	return rep, nil
}

func (svc *Service) sendResultMail(ctx context.Context, actorID string, e Exam, rep ScoreReport) {
	if svc.mailSvc == nil {
		return
	}
	usr, err := svc.users.GetUser(ctx, user.GetFilter{ID: actorID})
	if err != nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Exam result: " + e.Title,
		TemplateName: "exam_result",
		TemplateData: map[string]interface{}{
			"Name":           usr.Name,
			"ExamTitle":      e.Title,
			"Score":          rep.Score,
			"TotalQuestions": rep.TotalQuestions,
			"PassingScore":   rep.PassingScore,
			"IsPassed":       rep.IsPassed,
		},
	})
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]Exam, error) {
	return svc.repo.QueryExams(ctx, filter)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Exam, error) {
	return svc.repo.GetExam(ctx, id)
}

// GetByType returns the singleton exam of a non-lesson type.
func (svc *Service) GetByType(ctx context.Context, examType string) (Exam, error) {
	examType = core.CleanString(examType, true /* lower */)
	if examType == TypeLesson || !core.StringInSlice(examType, Types) {
		return Exam{}, ErrNotFound
	}
	return svc.repo.GetExamByType(ctx, examType)
}

func (svc *Service) QueryByLesson(ctx context.Context, lessonID string) ([]Exam, error) {
	if _, err := svc.lessons.GetLesson(ctx, lessonID); err != nil {
		return nil, err
	}
	return svc.repo.QueryExams(ctx, &QueryFilter{ExamType: TypeLesson, LessonID: lessonID})
}
