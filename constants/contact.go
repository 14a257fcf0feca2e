package constants

// NotAvailable is the sentinel stored in any contact field that could not be resolved.
const NotAvailable = "N/A"

// Column headers, in the order every tabular export writes them.
const (
	HeaderName        = "Name"
	HeaderTitle       = "Title"
	HeaderCompany     = "Company"
	HeaderEmail       = "Email"
	HeaderMobilePhone = "Mobile Phone"
	HeaderDirectPhone = "Direct Phone"
	HeaderHQPhone     = "HQ Phone"
	HeaderLocation    = "Location"
)

// ContactHeaders is the fixed column order for contact exports.
var ContactHeaders = []string{
	HeaderName,
	HeaderTitle,
	HeaderCompany,
	HeaderEmail,
	HeaderMobilePhone,
	HeaderDirectPhone,
	HeaderHQPhone,
	HeaderLocation,
}
