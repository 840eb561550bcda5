package notion

var (
	PageToNote = pageToNote
	PageTitle  = pageTitle
	PageDate   = pageDate
)
