package entity

// Post is a curated high-engagement LinkedIn post used as inspiration
type Post struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Content         string   `json:"content"`
	OriginalContent string   `json:"original_content,omitempty"`
	LinkedInURL     string   `json:"linkedin_url,omitempty"`
	EngagementScore int      `json:"engagement_score"`
	Tags            []string `json:"tags"`
	Category        string   `json:"category"`
	Industry        string   `json:"industry,omitempty"`
	PostDate        string   `json:"post_date,omitempty"`
	ScreenshotURL   string   `json:"screenshot_url,omitempty"`
	Featured        bool     `json:"featured"`
	AddedBy         string   `json:"added_by,omitempty"`
	AuthorName      string   `json:"author_name,omitempty"`
	AuthorHeadline  string   `json:"author_headline,omitempty"`
}

// DefaultLimit caps how many library posts are returned
const DefaultLimit = 50

// Samples is the built-in library shown while the curated table is empty or unreachable
func Samples() []Post {
	return []Post{
		{
			ID:              "1",
			Title:           "Consistency is Key",
			AuthorName:      "Sarah Jenkins",
			AuthorHeadline:  "CMO at TechFlow",
			Content:         consistencyPost,
			OriginalContent: consistencyPost,
			Tags:            []string{"Growth", "PersonalBranding", "Consistency"},
			EngagementScore: 95,
			Category:        "viral",
			Featured:        true,
			LinkedInURL:     "https://linkedin.com/post/123",
			Industry:        "Tech",
		},
		{
			ID:              "3",
			Title:           "Fundraising Truths",
			AuthorName:      "Elena Rodriguez",
			AuthorHeadline:  "Startup Advisor",
			Content:         fundraisingPost,
			OriginalContent: fundraisingPost,
			Tags:            []string{"Startups", "VentureCapital", "Advice"},
			EngagementScore: 92,
			Category:        "trending",
			Featured:        true,
			LinkedInURL:     "https://linkedin.com/post/789",
			Industry:        "Venture Capital",
		},
		{
			ID:              "2",
			Title:           "Technical Debt Framework",
			AuthorName:      "David Chen",
			AuthorHeadline:  "Senior Engineer @ Google",
			Content:         techDebtPost,
			OriginalContent: techDebtPost,
			Tags:            []string{"Engineering", "Leadership", "Productivity"},
			EngagementScore: 88,
			Category:        "educational",
			Featured:        false,
			LinkedInURL:     "https://linkedin.com/post/456",
			Industry:        "Software",
		},
	}
}

const (
	consistencyPost = "Stop trying to be perfect. Start trying to be consistent. \n\n" +
		"I posted on LinkedIn every day for 30 days. Here's what happened:\n" +
		"- Profile views up 400%\n- 3 inbound leads\n- 1 job offer\n\n" +
		"Consistency is the only cheat code."

	techDebtPost = "We need to talk about technical debt. \n\n" +
		"It's not just code. It's processes, it's documentation, it's onboarding.\n\n" +
		"Here is my framework for paying down debt without halting feature work..."

	fundraisingPost = "Unpopular opinion: Fundraising is a distraction for 90% of startups.\n\n" +
		"Focus on customers. Focus on revenue.\n\n" +
		"VC money is jet fuel. If you don't have an engine yet, you'll just burn up."
)
