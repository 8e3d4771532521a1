package models

import (
	"strings"
)

// Draft is the unsaved form state of exactly one step.
type Draft interface {
	Step() StepID
}

type Address struct {
	Street1 string `json:"street1" validate:"required,max=120"`
	Street2 string `json:"street2,omitempty" validate:"max=120"`
	City    string `json:"city" validate:"required,max=80"`
	State   string `json:"state" validate:"required,min=2,max=40"`
	Zip     string `json:"zip" validate:"required,zip"`
	Country string `json:"country" validate:"required,min=2,max=80"`
}

type FormationDocument struct {
	DocType string `json:"doc_type" validate:"required,oneof=articles_of_organization certificate_of_formation articles_of_incorporation certificate_of_limited_partnership partnership_equivalent"`
	FileID  string `json:"file_id" validate:"required,formref"`
}

const IndustryOther = "Other"

// BusinessDraft is step 1.
type BusinessDraft struct {
	LegalName          string              `json:"legal_name" validate:"required,min=2,max=120"`
	DBA                string              `json:"dba,omitempty" validate:"max=120"`
	EIN                string              `json:"ein" validate:"required,ein"`
	FormationDate      string              `json:"formation_date" validate:"required,isodate,notfuture"`
	FormationState     string              `json:"formation_state" validate:"required,min=2,max=40"`
	EntityType         string              `json:"entity_type" validate:"required,min=2,max=60"`
	Address            Address             `json:"address"`
	Industry           string              `json:"industry" validate:"required,max=80"`
	IndustryOther      string              `json:"industry_other,omitempty" validate:"max=80"`
	Website            string              `json:"website,omitempty" validate:"omitempty,max=200,website"`
	Description        string              `json:"description,omitempty" validate:"max=800"`
	FormationDocuments []FormationDocument `json:"formation_documents,omitempty" validate:"omitempty,dive"`
}

func (BusinessDraft) Step() StepID { return StepBusiness }

// ResolvedIndustry returns the free-text industry when "Other" is selected.
func (d BusinessDraft) ResolvedIndustry() string {
	if d.Industry == IndustryOther {
		return strings.TrimSpace(d.IndustryOther)
	}
	return strings.TrimSpace(d.Industry)
}

const (
	RoleOwner         = "owner"
	RoleAuthorizedRep = "authorized_rep"
)

// AuthorityDraft is step 2.
type AuthorityDraft struct {
	Role  string `json:"role" validate:"required,oneof=owner authorized_rep"`
	Title string `json:"title,omitempty" validate:"max=80"`
}

func (AuthorityDraft) Step() StepID { return StepAuthority }

// FileSelection is a document chosen locally but not uploaded yet.
type FileSelection struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Path        string `json:"path,omitempty"`
}

// IdentityDraft is step 3.
type IdentityDraft struct {
	FullName     string         `json:"full_name" validate:"required,min=2,max=120"`
	Title        string         `json:"title,omitempty" validate:"max=80"`
	Phone        string         `json:"phone,omitempty" validate:"max=32"`
	IDDocumentID string         `json:"id_document_id,omitempty" validate:"omitempty,docref"`
	SelectedFile *FileSelection `json:"selected_file,omitempty" validate:"-"`
	Attestation  bool           `json:"attestation" validate:"required"`
}

func (IdentityDraft) Step() StepID { return StepIdentity }

type Rail string

const (
	RailACH   Rail = "ach"
	RailWire  Rail = "wire"
	RailSWIFT Rail = "swift"
)

// BankDraft is step 4.
type BankDraft struct {
	Rail          Rail   `json:"rail,omitempty" validate:"omitempty,oneof=ach wire swift"`
	BankName      string `json:"bank_name" validate:"required,min=2,max=120"`
	AccountNumber string `json:"account_number" validate:"required,min=4,max=34,alphanum"`
	ACHRouting    string `json:"ach_routing,omitempty" validate:"omitempty,numeric,len=9"`
	WireRouting   string `json:"wire_routing,omitempty" validate:"omitempty,numeric,min=6,max=34"`
	SWIFT         string `json:"swift,omitempty" validate:"omitempty,swift"`
	IBAN          string `json:"iban,omitempty" validate:"omitempty,iban"`
}

func (BankDraft) Step() StepID { return StepBank }

// ReviewDraft is step 5. It adds no business data.
type ReviewDraft struct {
	VerificationMethod string `json:"verification_method,omitempty" validate:"omitempty,oneof=call id none"`
}

func (ReviewDraft) Step() StepID { return StepReview }

const (
	OTPMethodEmail = "email"
	OTPMethodSMS   = "sms"
)

// VerificationDraft is step 6: the chosen OTP channel or call slot.
type VerificationDraft struct {
	OTPMethod string `json:"otp_method,omitempty" validate:"omitempty,oneof=email sms"`
	Slot      string `json:"slot,omitempty"`
}

func (VerificationDraft) Step() StepID { return StepVerification }

// Drafts is every step's draft at once.
type Drafts struct {
	Business     BusinessDraft     `json:"step1"`
	Authority    AuthorityDraft    `json:"step2"`
	Identity     IdentityDraft     `json:"step3"`
	Bank         BankDraft         `json:"step4"`
	Review       ReviewDraft       `json:"step5"`
	Verification VerificationDraft `json:"step6"`
}

// Get returns the draft for step, or nil for an unknown step.
func (d *Drafts) Get(step StepID) Draft {
	switch step {
	case StepBusiness:
		return d.Business
	case StepAuthority:
		return d.Authority
	case StepIdentity:
		return d.Identity
	case StepBank:
		return d.Bank
	case StepReview:
		return d.Review
	case StepVerification:
		return d.Verification
	}
	return nil
}

// Target returns a pointer to the step's draft for in-place decoding.
func (d *Drafts) Target(step StepID) any {
	switch step {
	case StepBusiness:
		return &d.Business
	case StepAuthority:
		return &d.Authority
	case StepIdentity:
		return &d.Identity
	case StepBank:
		return &d.Bank
	case StepReview:
		return &d.Review
	case StepVerification:
		return &d.Verification
	}
	return nil
}

// Reset zeroes one step's draft.
func (d *Drafts) Reset(step StepID) {
	switch step {
	case StepBusiness:
		d.Business = BusinessDraft{}
	case StepAuthority:
		d.Authority = AuthorityDraft{}
	case StepIdentity:
		d.Identity = IdentityDraft{}
	case StepBank:
		d.Bank = BankDraft{}
	case StepReview:
		d.Review = ReviewDraft{}
	case StepVerification:
		d.Verification = VerificationDraft{}
	}
}

// Clone deep-copies the slices and pointers so callers cannot alias store state.
func (d Drafts) Clone() Drafts {
	out := d
	if d.Business.FormationDocuments != nil {
		out.Business.FormationDocuments = append([]FormationDocument(nil), d.Business.FormationDocuments...)
	}
	if d.Identity.SelectedFile != nil {
		f := *d.Identity.SelectedFile
		out.Identity.SelectedFile = &f
	}
	return out
}
