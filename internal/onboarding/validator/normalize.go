package validator

import (
	"strings"

	"aplite/internal/onboarding/models"
)

// NormalizeBusiness trims free text and cleans the website the way the
// backend stores it.
func NormalizeBusiness(d models.BusinessDraft) models.BusinessDraft {
	d.LegalName = strings.TrimSpace(d.LegalName)
	d.DBA = strings.TrimSpace(d.DBA)
	d.EIN = strings.TrimSpace(d.EIN)
	d.FormationDate = strings.TrimSpace(d.FormationDate)
	d.FormationState = strings.TrimSpace(d.FormationState)
	d.EntityType = strings.TrimSpace(d.EntityType)
	d.Industry = strings.TrimSpace(d.Industry)
	d.IndustryOther = strings.TrimSpace(d.IndustryOther)
	d.Description = strings.TrimSpace(d.Description)
	if d.Website != "" {
		d.Website = NormalizeWebsite(d.Website)
	}
	d.Address = models.Address{
		Street1: strings.TrimSpace(d.Address.Street1),
		Street2: strings.TrimSpace(d.Address.Street2),
		City:    strings.TrimSpace(d.Address.City),
		State:   strings.TrimSpace(d.Address.State),
		Zip:     strings.TrimSpace(d.Address.Zip),
		Country: strings.TrimSpace(d.Address.Country),
	}
	return d
}

// NormalizeWebsite reduces a URL to its lower-case host.
func NormalizeWebsite(raw string) string {
	v := strings.ToLower(strings.TrimSpace(raw))
	v = strings.TrimPrefix(v, "https://")
	v = strings.TrimPrefix(v, "http://")
	host, _, _ := strings.Cut(v, "/")
	return host
}

func NormalizeAuthority(d models.AuthorityDraft) models.AuthorityDraft {
	d.Role = strings.TrimSpace(d.Role)
	d.Title = strings.TrimSpace(d.Title)
	return d
}

func NormalizeIdentity(d models.IdentityDraft) models.IdentityDraft {
	d.FullName = strings.TrimSpace(d.FullName)
	d.Title = strings.TrimSpace(d.Title)
	d.Phone = strings.TrimSpace(d.Phone)
	d.IDDocumentID = strings.TrimSpace(d.IDDocumentID)
	return d
}

// NormalizeBank strips spaces from account identifiers and upper-cases the
// international ones.
func NormalizeBank(d models.BankDraft) models.BankDraft {
	d.Rail = models.Rail(strings.ToLower(strings.TrimSpace(string(d.Rail))))
	d.BankName = strings.TrimSpace(d.BankName)
	d.AccountNumber = stripSpaces(d.AccountNumber)
	d.ACHRouting = stripSpaces(d.ACHRouting)
	d.WireRouting = stripSpaces(d.WireRouting)
	d.SWIFT = strings.ToUpper(stripSpaces(d.SWIFT))
	d.IBAN = strings.ToUpper(stripSpaces(d.IBAN))
	return d
}

// Normalize returns a copy of drafts as it should be sent to the backend.
func Normalize(drafts models.Drafts) models.Drafts {
	out := drafts.Clone()
	out.Business = NormalizeBusiness(out.Business)
	out.Authority = NormalizeAuthority(out.Authority)
	out.Identity = NormalizeIdentity(out.Identity)
	out.Bank = NormalizeBank(out.Bank)
	if out.Business.Industry == models.IndustryOther {
		out.Business.Industry = out.Business.ResolvedIndustry()
	}
	return out
}

func stripSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}
