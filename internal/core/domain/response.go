package domain

// Source is a cited match in a response.
type Source struct {
	ID         string
	DocumentID string
	Citation   string
	Title      string
	Excerpt    string
	Score      float64
	SourceType SourceType
	Namespace  Namespace
}

// Response is the user-facing answer to a query.
type Response struct {
	ID              string
	Query           string
	Answer          string
	Confidence      float64
	Sources         []Source
	LegalDisclaimer string
	FollowUp        []string
	Strategy        Strategy
	RegionCode      string

	// Failed is true when the answer is a templated apology because
	// retrieval could not run. Details are only logged.
	Failed bool
}

// AskOptions configures an end-to-end query.
type AskOptions struct {
	TopK      int
	Threshold *float64

	// NoCache bypasses the response cache.
	NoCache bool
}
