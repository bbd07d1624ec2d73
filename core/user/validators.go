package user

import (
	"strings"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/mahmoud01140/onlineEdu/core"
)

var (
	roleRequiredTag  = "rolerequired"
	roleRequiredText = "{0} is required for this role"

	addressLenTag  = "addresslen"
	addressLenText = "address must contain between 5 and 500 characters"

	// password policy
	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to user attributes"
)

// InitValidators registers the user validators. core.InitValidators must be called first.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(registrationStructValidation, NewStudent{}, NewTeacher{}, NewElder{}, NewAdmin{})

	core.RegisterCustomTranslation(validate, translator, roleRequiredTag, roleRequiredText)
	core.RegisterCustomTranslation(validate, translator, addressLenTag, addressLenText)
	core.RegisterCustomTranslation(validate, translator, pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)
}

// registrationStructValidation checks the fields each role must provide, on top of the field tags.
func registrationStructValidation(sl validator.StructLevel) {
	require := func(val interface{}, empty bool, field string) {
		if empty {
			sl.ReportError(val, field, field, roleRequiredTag, "")
		}
	}
	requireMemorization := func(m Memorization) {
		require(m.AvailableTime, m.AvailableTime == "", "availableTime")
		require(m.MemorizedAmount, m.MemorizedAmount == "", "memorizedAmount")
		require(m.DailyMemorization, m.DailyMemorization == "", "dailyMemorization")
		require(m.DailyReview, m.DailyReview == "", "dailyReview")
		require(m.DailyRecitation, m.DailyRecitation == "", "dailyRecitation")
	}

	var na NewActor
	switch reg := sl.Current().Interface().(type) {
	case NewStudent:
		na = reg.NewActor
		require(reg.Age, reg.Age == 0, "age")
		require(reg.Address, reg.Address == "", "address")
		require(reg.ParentPhone, reg.ParentPhone == "", "parentPhone")
		require(reg.Grade, reg.Grade == "", "grade")
		require(reg.ParentJob, reg.ParentJob == "", "parentJob")
		requireMemorization(reg.Memorization)
		require(reg.PlanFinishQuran, reg.PlanFinishQuran == "", "planFinishQuran")
	case NewTeacher:
		na = reg.NewActor
		requireMemorization(reg.Memorization)
		require(reg.KhatmaPlan, reg.KhatmaPlan == "", "khatmaPlan")
	case NewElder:
		na = reg.NewActor
		require(reg.Phone, reg.Phone == "", "phone")
		if l := len([]rune(reg.Address)); l < 5 || l > 500 {
			sl.ReportError(reg.Address, "address", "address", addressLenTag, "")
		}
		requireMemorization(reg.Memorization)
	case NewAdmin:
		na = reg.NewActor
	default:
		return
	}
	validatePassword(na.Password, na.Name, na.Email, sl)
}

// validatePassword applies the password policy on top of the length tag:
// - no whitespace
// - no user attrs similarity
func validatePassword(pwd, name, email string, sl validator.StructLevel) {
	reportErr := func(tag string) {
		sl.ReportError(pwd, "password", "password", tag, "")
	}
	if pwd == "" {
		return // reported by the required tag
	}

	for _, char := range pwd {
		if unicode.IsSpace(char) {
			reportErr(pwdNoSpaceTag)
			return
		}
	}

	if tooSimilar(pwd, name) || tooSimilar(pwd, email) || tooSimilar(pwd, strings.SplitN(email, "@", 2)[0]) {
		reportErr(pwdAttrSimTag)
	}
}

func tooSimilar(pwd, usrAttr string) bool {
	if usrAttr == "" {
		return false
	}
	a := strings.Split(strings.ToLower(pwd), "")
	b := strings.Split(strings.ToLower(usrAttr), "")
	return difflib.NewMatcher(a, b).QuickRatio() >= pwdMaxSim
}
