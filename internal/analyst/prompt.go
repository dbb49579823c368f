package analyst

import (
	"fmt"

	"github.com/timkosters/edge-city-finder/internal/model"
)

// verifyPrompt instructs the model to judge listing-vs-article and
// availability, and to emit a single JSON verdict. The classification
// rules are part of the contract: qualified means listing AND available.
func verifyPrompt(lead model.Lead) string {
	return fmt.Sprintf(`You are a real estate analyst verifying property leads. Analyze this property and determine if it's a viable lead.

Property Title: %s
URL: %s
Source Type: %s
Description: %s

Answer these questions:
1. Is this an ACTUAL LISTING (property for sale/rent) or just a NEWS ARTICLE about a property?
2. Is the property AVAILABLE (can be purchased) or ALREADY SOLD/ACQUIRED by someone else?
3. What is the property type? (college, camp, resort, hotel, retreat center, other)
4. Any red flags that make this NOT a viable lead?

Consider these as NOT available:
- Properties being acquired by another institution (e.g., "bought by Vanderbilt")
- Properties already sold/under contract
- Properties that are closing but not selling the real estate
- Purely news coverage without sale information

Output JSON:
{
    "is_listing": true/false,
    "is_available": true/false,
    "property_type": "college|camp|resort|hotel|retreat|other",
    "classification": "qualified|interesting|dismissed",
    "reason": "Brief explanation of classification",
    "extracted_price": "$X,XXX,XXX or null",
    "extracted_beds": number or null,
    "extracted_acreage": number or null
}

Classification rules:
- "qualified": Is a listing AND is available
- "interesting": Is news/article about a property that MIGHT become available
- "dismissed": Already sold, not a property, or not relevant`,
		lead.Title, lead.URL, lead.SourceType, lead.Description)
}

// analyzePrompt asks for a viability score and summary for the co-living
// reuse scenario: 200+ occupants, under two hours to a major airport.
func analyzePrompt(lead model.Lead) string {
	return fmt.Sprintf(`You are an expert real estate analyst specializing in distressed assets (colleges, camps, resorts).
Analyze this verified property lead and provide a structured summary.

Property Title: %s
URL: %s
Location: %s
Price: %s
Description: %s
Verification: %s

Task:
1. Rate the "viability" score (0-100) for turning this into a co-living village for 200+ builders.
2. Write a one-sentence "punchy" summary of why this is interesting.
3. Extract any vital stats if apparent from context.

Consider:
- Capacity (200+ beds needed)
- Drive time to major airport (<2 hours ideal)
- Price point
- Infrastructure condition

Output JSON:
{
    "score": <int 0-100>,
    "ai_summary": "<one compelling sentence>",
    "inferred_beds": <int or null>,
    "inferred_acreage": <float or null>
}`,
		lead.Title, lead.URL, lead.Location, lead.Price, lead.Description, lead.VerificationReason)
}
