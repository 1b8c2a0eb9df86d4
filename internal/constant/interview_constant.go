package constant

const (
	InterviewGreeting = "Hello! I'm your Knowledge Transfer Assistant. Let's start the KT session. Can you give me a high-level overview of the system we're documenting today?"

	UploadedDocumentPrefix = "📄 **Uploaded Document:** "

	DefaultSearchLimit = 2

	// how long a generated KT document stays retrievable
	SummaryCacheTTLHours = 24
)
