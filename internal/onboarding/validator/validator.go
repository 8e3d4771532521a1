// Package validator checks one step's draft before it is submitted.
//
// Every function returns an ordered list of human-readable violations; an
// empty list means the draft may be sent. Nothing here performs I/O.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"aplite/internal/onboarding/models"
)

const (
	dateLayout = "2006-01-02"

	// MaxUploadBytes is the largest document the backend accepts.
	MaxUploadBytes = 10 * 1024 * 1024
)

var (
	einRE     = regexp.MustCompile(`^\d{2}-\d{7}$`)
	zipRE     = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	domainRE  = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9-]{0,61}[A-Za-z0-9])?(\.[A-Za-z0-9]([A-Za-z0-9-]{0,61}[A-Za-z0-9])?)+$`)
	docRefRE  = regexp.MustCompile(`^id_[0-9a-f]{32}$`)
	formRefRE = regexp.MustCompile(`^form_[0-9a-f]{32}$`)
	swiftRE   = regexp.MustCompile(`^[A-Z0-9]{8}([A-Z0-9]{3})?$`)
	ibanRE    = regexp.MustCompile(`^[A-Z]{2}[0-9]{2}[A-Z0-9]{11,30}$`)
	otpRE     = regexp.MustCompile(`^\d{6}$`)
)

var uploadTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"application/pdf": true,
}

// Validator wraps a configured go-playground validator. It is safe for
// concurrent use.
type Validator struct {
	v   *validator.Validate
	now func() time.Time
}

type Option func(*Validator)

// WithClock fixes "today" for the formation-date rule.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		v.now = now
	}
}

func New(opts ...Option) *Validator {
	val := &Validator{
		v:   validator.New(validator.WithRequiredStructEnabled()),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(val)
	}

	val.v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	must(val.v.RegisterValidation("ein", matches(einRE)))
	must(val.v.RegisterValidation("zip", matches(zipRE)))
	must(val.v.RegisterValidation("docref", matches(docRefRE)))
	must(val.v.RegisterValidation("formref", matches(formRefRE)))
	must(val.v.RegisterValidation("swift", matches(swiftRE)))
	must(val.v.RegisterValidation("iban", matches(ibanRE)))
	must(val.v.RegisterValidation("website", func(fl validator.FieldLevel) bool {
		return domainRE.MatchString(NormalizeWebsite(fl.Field().String()))
	}))
	must(val.v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(dateLayout, fl.Field().String())
		return err == nil
	}))
	must(val.v.RegisterValidation("notfuture", func(fl validator.FieldLevel) bool {
		d, err := time.Parse(dateLayout, fl.Field().String())
		if err != nil {
			return false
		}
		today := val.now().UTC().Format(dateLayout)
		return d.Format(dateLayout) <= today
	}))
	return val
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// Validate dispatches to the rule set of one step.
func (v *Validator) Validate(step models.StepID, drafts models.Drafts) []string {
	switch step {
	case models.StepBusiness:
		return v.ValidateStep1(drafts.Business)
	case models.StepAuthority:
		return v.ValidateStep2(drafts.Authority)
	case models.StepIdentity:
		return v.ValidateStep3(drafts.Identity)
	case models.StepBank:
		return v.ValidateStep4(drafts.Bank)
	case models.StepReview:
		return v.ValidateReview(drafts)
	case models.StepVerification:
		return v.structViolations(drafts.Verification)
	}
	return []string{fmt.Sprintf("Unknown step %d.", step)}
}

// ValidateStep1 checks business identity.
func (v *Validator) ValidateStep1(d models.BusinessDraft) []string {
	d = NormalizeBusiness(d)
	out := v.structViolations(d)
	if d.Industry == models.IndustryOther && d.IndustryOther == "" {
		out = append(out, "Describe your industry when selecting Other.")
	}
	return out
}

// ValidateStep2 checks the authority role.
func (v *Validator) ValidateStep2(d models.AuthorityDraft) []string {
	d = NormalizeAuthority(d)
	out := v.structViolations(d)
	if d.Role == models.RoleAuthorizedRep && d.Title == "" {
		out = append(out, "Executive title is required for an authorized representative.")
	}
	return out
}

// ValidateStep3 checks identity. A document reference or a local file
// selection must be present.
func (v *Validator) ValidateStep3(d models.IdentityDraft) []string {
	d = NormalizeIdentity(d)
	out := v.structViolations(d)
	switch {
	case d.IDDocumentID == "" && d.SelectedFile == nil:
		out = append(out, "Upload a government ID document.")
	case d.IDDocumentID == "" && d.SelectedFile != nil:
		out = append(out, ValidateUpload(d.SelectedFile.ContentType, d.SelectedFile.Size)...)
	}
	return out
}

// ValidateStep4 checks the bank rail. The rail decides which routing
// identifier is mandatory; any identifier supplied must be well-formed.
func (v *Validator) ValidateStep4(d models.BankDraft) []string {
	d = NormalizeBank(d)
	out := v.structViolations(d)

	switch d.Rail {
	case models.RailACH:
		if d.ACHRouting == "" {
			out = append(out, "ACH routing number is required for the ACH rail.")
		}
	case models.RailWire:
		if d.WireRouting == "" {
			out = append(out, "Wire routing number is required for the wire rail.")
		}
	case models.RailSWIFT:
		if d.SWIFT == "" && d.IBAN == "" {
			out = append(out, "SWIFT/BIC or IBAN is required for international transfers.")
		}
	default:
		if d.ACHRouting == "" && d.WireRouting == "" && d.SWIFT == "" && d.IBAN == "" {
			out = append(out, "Provide at least one rail (ACH routing, wire routing, or SWIFT/IBAN).")
		}
	}

	international := d.SWIFT != "" || d.IBAN != ""
	if d.AccountNumber != "" && !international && !isDigits(d.AccountNumber) {
		out = append(out, "Account number must be numeric for ACH or wire rails.")
	}
	return out
}

// ValidateReview is the aggregate gate run before the final submission.
func (v *Validator) ValidateReview(drafts models.Drafts) []string {
	var out []string
	for _, step := range models.DataSteps {
		for _, msg := range v.Validate(step, drafts) {
			out = append(out, fmt.Sprintf("Step %d: %s", step, msg))
		}
	}
	out = append(out, v.structViolations(drafts.Review)...)
	if msg := formationDocumentViolation(drafts.Business); msg != "" {
		out = append(out, fmt.Sprintf("Step %d: %s", models.StepBusiness, msg))
	}
	if drafts.Review.VerificationMethod == "id" && drafts.Identity.IDDocumentID == "" && drafts.Identity.SelectedFile == nil {
		out = append(out, "ID verification requires an uploaded government ID.")
	}
	return out
}

// ValidateOTPCode checks a one-time code before it is confirmed.
func ValidateOTPCode(code string) []string {
	if !otpRE.MatchString(strings.TrimSpace(code)) {
		return []string{"Verification code must be 6 digits."}
	}
	return nil
}

// ValidateOTPMethod checks the delivery channel for a one-time code.
func ValidateOTPMethod(method string) []string {
	switch method {
	case models.OTPMethodEmail, models.OTPMethodSMS:
		return nil
	}
	return []string{"Choose email or SMS for the verification code."}
}

// ValidateSlot requires slot to be one of the offered times.
func ValidateSlot(slot string, available []time.Time) []string {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(slot))
	if err != nil {
		return []string{"Call slot must be an ISO-8601 timestamp."}
	}
	for _, a := range available {
		if a.Equal(t) {
			return nil
		}
	}
	return []string{"Selected call slot is no longer available."}
}

// ValidateUpload checks a document before it is sent.
func ValidateUpload(contentType string, size int64) []string {
	var out []string
	if !uploadTypes[strings.ToLower(contentType)] {
		out = append(out, "Unsupported file type. Use jpg, png, or pdf.")
	}
	if size <= 0 {
		out = append(out, "File is empty.")
	} else if size > MaxUploadBytes {
		out = append(out, "File too large (max 10MB).")
	}
	return out
}

// FormationDocTypes lists the document types accepted for an entity type.
// Sole proprietors need none; an unknown entity type accepts none.
func FormationDocTypes(entityType string) (allowed []string, required bool) {
	key := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, strings.ToLower(entityType))

	switch key {
	case "soleproprietor":
		return nil, false
	case "llc":
		return []string{"articles_of_organization", "certificate_of_formation"}, true
	case "ccorp", "scorp", "nonprofit", "nonprofitcorporation":
		return []string{"articles_of_incorporation"}, true
	case "partnership":
		return []string{"certificate_of_limited_partnership", "partnership_equivalent"}, true
	}
	return nil, true
}

func formationDocumentViolation(d models.BusinessDraft) string {
	allowed, required := FormationDocTypes(d.EntityType)
	if !required {
		return ""
	}
	if len(allowed) == 0 {
		return "Formation documents are required for this entity type."
	}
	for _, doc := range d.FormationDocuments {
		for _, a := range allowed {
			if doc.DocType == a {
				return ""
			}
		}
	}
	return "Upload a valid formation document for this entity type."
}

func (v *Validator) structViolations(s any) []string {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{"Form data is malformed."}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, message(fe))
	}
	return out
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
