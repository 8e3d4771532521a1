package validator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var labels = map[string]string{
	"legal_name":          "Legal name",
	"dba":                 "DBA",
	"ein":                 "Tax ID",
	"formation_date":      "Formation date",
	"formation_state":     "Formation state",
	"entity_type":         "Entity type",
	"street1":             "Street address",
	"street2":             "Street address line 2",
	"city":                "City",
	"state":               "State",
	"zip":                 "ZIP",
	"country":             "Country",
	"industry":            "Industry",
	"industry_other":      "Industry description",
	"website":             "Website",
	"description":         "Description",
	"doc_type":            "Formation document type",
	"file_id":             "Formation document",
	"role":                "Role",
	"title":               "Title",
	"full_name":           "Full legal name",
	"phone":               "Phone",
	"id_document_id":      "ID document",
	"attestation":         "Attestation",
	"rail":                "Payment rail",
	"bank_name":           "Bank name",
	"account_number":      "Account number",
	"ach_routing":         "ACH routing number",
	"wire_routing":        "Wire routing number",
	"swift":               "SWIFT/BIC",
	"iban":                "IBAN",
	"verification_method": "Verification method",
	"otp_method":          "Code delivery method",
}

// fixed messages for rules whose wording does not depend on the field.
var tagMessages = map[string]string{
	"ein":       "Tax ID must match NN-NNNNNNN format.",
	"zip":       "ZIP must be 5 digits or ZIP+4 (NNNNN or NNNNN-NNNN).",
	"isodate":   "Formation date must be a date in YYYY-MM-DD format.",
	"notfuture": "Formation date cannot be in the future.",
	"website":   "Website must be a valid domain (e.g. example.com).",
	"docref":    "Invalid document reference. Please re-upload.",
	"formref":   "Invalid formation document reference. Please re-upload.",
	"swift":     "SWIFT/BIC must be 8 or 11 alphanumeric characters.",
	"iban":      "IBAN must start with a country code and be 15-34 characters.",
}

func label(fe validator.FieldError) string {
	if l, ok := labels[fe.Field()]; ok {
		return l
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	if msg, ok := tagMessages[fe.Tag()]; ok {
		return msg
	}
	name := label(fe)
	switch fe.Tag() {
	case "required":
		if fe.Field() == "attestation" {
			return "You must attest that the information provided is accurate."
		}
		return name + " is required."
	case "min":
		if fe.Field() == "wire_routing" {
			return fmt.Sprintf("%s should be at least %s digits.", name, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters.", name, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", name, fe.Param())
	case "len":
		return fmt.Sprintf("%s must be %s digits.", name, fe.Param())
	case "numeric":
		return name + " must be numeric."
	case "alphanum":
		return name + " must be alphanumeric."
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s.", name, strings.ReplaceAll(fe.Param(), " ", ", "))
	}
	return name + " is invalid."
}
