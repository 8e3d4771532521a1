package validator

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"aplite/internal/onboarding/models"
)

var fixedNow = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

type ValidatorSuite struct {
	suite.Suite
	v *Validator
}

func TestValidatorSuite(t *testing.T) {
	suite.Run(t, new(ValidatorSuite))
}

func (s *ValidatorSuite) SetupTest() {
	s.v = New(WithClock(func() time.Time { return fixedNow }))
}

func validBusiness() models.BusinessDraft {
	return models.BusinessDraft{
		LegalName:      "Acme Robotics LLC",
		EIN:            "12-3456789",
		FormationDate:  "2020-01-01",
		FormationState: "DE",
		EntityType:     "LLC",
		Address: models.Address{
			Street1: "1 Main St",
			City:    "Wilmington",
			State:   "DE",
			Zip:     "19801",
			Country: "US",
		},
		Industry: "Software",
		FormationDocuments: []models.FormationDocument{
			{DocType: "articles_of_organization", FileID: "form_" + strings.Repeat("a", 32)},
		},
	}
}

func validIdentity() models.IdentityDraft {
	return models.IdentityDraft{
		FullName:     "Jordan Lee",
		IDDocumentID: "id_" + strings.Repeat("0f", 16),
		Attestation:  true,
	}
}

func validBank() models.BankDraft {
	return models.BankDraft{
		Rail:          models.RailACH,
		BankName:      "First National",
		AccountNumber: "000123456789",
		ACHRouting:    "123456789",
	}
}

func validDrafts() models.Drafts {
	return models.Drafts{
		Business:  validBusiness(),
		Authority: models.AuthorityDraft{Role: models.RoleOwner},
		Identity:  validIdentity(),
		Bank:      validBank(),
	}
}

func (s *ValidatorSuite) TestStep1() {
	s.Run("valid business identity", func() {
		s.Empty(s.v.ValidateStep1(validBusiness()))
	})

	s.Run("empty draft reports every required field", func() {
		out := s.v.ValidateStep1(models.BusinessDraft{})
		s.Contains(out, "Legal name is required.")
		s.Contains(out, "Tax ID is required.")
		s.Contains(out, "Formation date is required.")
		s.Contains(out, "Street address is required.")
		s.Contains(out, "ZIP is required.")
		s.Contains(out, "Industry is required.")
	})

	s.Run("tax id format", func() {
		d := validBusiness()
		d.EIN = "123456789"
		s.Equal([]string{"Tax ID must match NN-NNNNNNN format."}, s.v.ValidateStep1(d))
	})

	s.Run("future formation date", func() {
		d := validBusiness()
		d.FormationDate = "2030-01-01"
		s.Equal([]string{"Formation date cannot be in the future."}, s.v.ValidateStep1(d))
	})

	s.Run("formation date today is allowed", func() {
		d := validBusiness()
		d.FormationDate = "2026-10-17"
		s.Empty(s.v.ValidateStep1(d))
	})

	s.Run("malformed formation date", func() {
		d := validBusiness()
		d.FormationDate = "01/01/2020"
		s.Equal([]string{"Formation date must be a date in YYYY-MM-DD format."}, s.v.ValidateStep1(d))
	})

	s.Run("zip plus four", func() {
		d := validBusiness()
		d.Address.Zip = "19801-1234"
		s.Empty(s.v.ValidateStep1(d))
		d.Address.Zip = "1980"
		s.Equal([]string{"ZIP must be 5 digits or ZIP+4 (NNNNN or NNNNN-NNNN)."}, s.v.ValidateStep1(d))
	})

	s.Run("industry other needs free text", func() {
		d := validBusiness()
		d.Industry = models.IndustryOther
		s.Equal([]string{"Describe your industry when selecting Other."}, s.v.ValidateStep1(d))
		d.IndustryOther = "Drone inspection"
		s.Empty(s.v.ValidateStep1(d))
	})

	s.Run("website accepts a URL and rejects garbage", func() {
		d := validBusiness()
		d.Website = "https://www.Acme.com/about"
		s.Empty(s.v.ValidateStep1(d))
		d.Website = "not a site"
		s.Equal([]string{"Website must be a valid domain (e.g. example.com)."}, s.v.ValidateStep1(d))
	})

	s.Run("whitespace-only legal name is missing", func() {
		d := validBusiness()
		d.LegalName = "   "
		s.Equal([]string{"Legal name is required."}, s.v.ValidateStep1(d))
	})
}

func (s *ValidatorSuite) TestStep2() {
	s.Empty(s.v.ValidateStep2(models.AuthorityDraft{Role: models.RoleOwner}))
	s.Equal([]string{"Role is required."}, s.v.ValidateStep2(models.AuthorityDraft{}))
	s.Equal(
		[]string{"Executive title is required for an authorized representative."},
		s.v.ValidateStep2(models.AuthorityDraft{Role: models.RoleAuthorizedRep}),
	)
	s.Empty(s.v.ValidateStep2(models.AuthorityDraft{Role: models.RoleAuthorizedRep, Title: "CFO"}))
	s.Equal(
		[]string{"Role must be one of: owner, authorized_rep."},
		s.v.ValidateStep2(models.AuthorityDraft{Role: "intern"}),
	)
}

func (s *ValidatorSuite) TestStep3() {
	s.Run("valid with uploaded reference", func() {
		s.Empty(s.v.ValidateStep3(validIdentity()))
	})

	s.Run("valid with a local file selection", func() {
		d := validIdentity()
		d.IDDocumentID = ""
		d.SelectedFile = &models.FileSelection{Name: "passport.pdf", ContentType: "application/pdf", Size: 2048}
		s.Empty(s.v.ValidateStep3(d))
	})

	s.Run("document required", func() {
		d := validIdentity()
		d.IDDocumentID = ""
		s.Equal([]string{"Upload a government ID document."}, s.v.ValidateStep3(d))
	})

	s.Run("oversized selection", func() {
		d := validIdentity()
		d.IDDocumentID = ""
		d.SelectedFile = &models.FileSelection{Name: "scan.png", ContentType: "image/png", Size: MaxUploadBytes + 1}
		s.Equal([]string{"File too large (max 10MB)."}, s.v.ValidateStep3(d))
	})

	s.Run("attestation must be checked", func() {
		d := validIdentity()
		d.Attestation = false
		s.Equal([]string{"You must attest that the information provided is accurate."}, s.v.ValidateStep3(d))
	})

	s.Run("malformed document reference", func() {
		d := validIdentity()
		d.IDDocumentID = "id_123"
		s.Equal([]string{"Invalid document reference. Please re-upload."}, s.v.ValidateStep3(d))
	})
}

func (s *ValidatorSuite) TestStep4() {
	s.Run("ACH with 9 digit routing is valid", func() {
		s.Empty(s.v.ValidateStep4(validBank()))
	})

	s.Run("short ACH routing is rejected", func() {
		d := validBank()
		d.ACHRouting = "12345"
		out := s.v.ValidateStep4(d)
		s.Require().NotEmpty(out)
		s.Contains(out, "ACH routing number must be 9 digits.")
	})

	s.Run("ACH rail requires routing", func() {
		d := validBank()
		d.ACHRouting = ""
		s.Equal([]string{"ACH routing number is required for the ACH rail."}, s.v.ValidateStep4(d))
	})

	s.Run("wire routing minimum", func() {
		d := models.BankDraft{Rail: models.RailWire, BankName: "First National", AccountNumber: "12345678", WireRouting: "12345"}
		s.Equal([]string{"Wire routing number should be at least 6 digits."}, s.v.ValidateStep4(d))
		d.WireRouting = "123456"
		s.Empty(s.v.ValidateStep4(d))
	})

	s.Run("swift rail accepts IBAN and alphanumeric accounts", func() {
		d := models.BankDraft{
			Rail:          models.RailSWIFT,
			BankName:      "Deutsche Bank",
			AccountNumber: "DE89370400440532013000",
			IBAN:          "de89 3704 0044 0532 0130 00",
		}
		s.Empty(s.v.ValidateStep4(d))
	})

	s.Run("bad SWIFT", func() {
		d := models.BankDraft{Rail: models.RailSWIFT, BankName: "HSBC", AccountNumber: "12345678", SWIFT: "HSBC"}
		s.Equal([]string{"SWIFT/BIC must be 8 or 11 alphanumeric characters."}, s.v.ValidateStep4(d))
	})

	s.Run("no rail and no identifiers", func() {
		d := models.BankDraft{BankName: "First National", AccountNumber: "12345678"}
		s.Equal([]string{"Provide at least one rail (ACH routing, wire routing, or SWIFT/IBAN)."}, s.v.ValidateStep4(d))
	})

	s.Run("domestic account must be numeric", func() {
		d := validBank()
		d.AccountNumber = "ABC12345"
		s.Equal([]string{"Account number must be numeric for ACH or wire rails."}, s.v.ValidateStep4(d))
	})

	s.Run("bank name and account number required", func() {
		d := validBank()
		d.BankName = ""
		d.AccountNumber = ""
		out := s.v.ValidateStep4(d)
		s.Contains(out, "Bank name is required.")
		s.Contains(out, "Account number is required.")
	})
}

func (s *ValidatorSuite) TestReviewGate() {
	s.Run("all steps valid", func() {
		s.Empty(s.v.ValidateReview(validDrafts()))
	})

	s.Run("violations are prefixed with their step", func() {
		d := validDrafts()
		d.Bank.ACHRouting = "12345"
		d.Authority = models.AuthorityDraft{}
		out := s.v.ValidateReview(d)
		s.Equal([]string{
			"Step 2: Role is required.",
			"Step 4: ACH routing number must be 9 digits.",
		}, out)
	})

	s.Run("formation document required for LLC", func() {
		d := validDrafts()
		d.Business.FormationDocuments = nil
		s.Equal([]string{"Step 1: Upload a valid formation document for this entity type."}, s.v.ValidateReview(d))
	})

	s.Run("sole proprietor needs no formation document", func() {
		d := validDrafts()
		d.Business.EntityType = "Sole Proprietor"
		d.Business.FormationDocuments = nil
		s.Empty(s.v.ValidateReview(d))
	})
}

func (s *ValidatorSuite) TestValidateDispatch() {
	d := validDrafts()
	d.Bank.ACHRouting = "12345"
	s.Empty(s.v.Validate(models.StepBusiness, d))
	s.NotEmpty(s.v.Validate(models.StepBank, d))
	s.NotEmpty(s.v.Validate(models.StepReview, d))
	s.Empty(s.v.Validate(models.StepVerification, d))
	s.Equal([]string{"Unknown step 9."}, s.v.Validate(9, d))
}

func TestValidateOTPCode(t *testing.T) {
	assert.Empty(t, ValidateOTPCode("123456"))
	assert.Empty(t, ValidateOTPCode(" 123456 "))
	assert.NotEmpty(t, ValidateOTPCode("12345"))
	assert.NotEmpty(t, ValidateOTPCode("abcdef"))
}

func TestValidateSlot(t *testing.T) {
	slot := time.Date(2026, 10, 20, 15, 0, 0, 0, time.UTC)
	available := []time.Time{slot, slot.Add(time.Hour)}

	assert.Empty(t, ValidateSlot("2026-10-20T15:00:00Z", available))
	assert.Empty(t, ValidateSlot("2026-10-20T11:00:00-04:00", available))
	assert.Equal(t, []string{"Selected call slot is no longer available."}, ValidateSlot("2026-10-21T15:00:00Z", available))
	assert.Equal(t, []string{"Call slot must be an ISO-8601 timestamp."}, ValidateSlot("tomorrow", available))
}

func TestValidateUpload(t *testing.T) {
	assert.Empty(t, ValidateUpload("image/jpeg", 1024))
	assert.Equal(t, []string{"Unsupported file type. Use jpg, png, or pdf."}, ValidateUpload("image/gif", 1024))
	assert.Equal(t, []string{"File is empty."}, ValidateUpload("application/pdf", 0))
}

func TestNormalize_ResolvesIndustry(t *testing.T) {
	d := models.Drafts{Business: models.BusinessDraft{Industry: models.IndustryOther, IndustryOther: " Drones "}}
	out := Normalize(d)
	require.Equal(t, "Drones", out.Business.Industry)
	assert.Equal(t, models.IndustryOther, d.Business.Industry)
}
