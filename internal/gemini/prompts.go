package gemini

import (
	"fmt"
	"strings"

	"github.com/leadscout/api/internal/entity"
)

func summarizePrompt(description, docText, siteURL string) string {
	return strings.TrimSpace(fmt.Sprintf(`
You are an expert business analyst. Based on the following information about a business,
summarize its core services, target audience, and unique value proposition in a concise
paragraph of 2-3 sentences. This summary will be used to find potential clients.

Business Description: %q
Additional Information from uploaded file: %q
Business Website: %q
`, description, docText, siteURL))
}

func discoverPrompt(summary, industry, location string, count int) string {
	locationInstruction := fmt.Sprintf("Focus your search primarily within %q.", location)
	if count > 5 {
		locationInstruction = fmt.Sprintf("Since a higher number of leads (%d) was requested, you MUST expand your search to include nearby towns and suburbs around %q to find enough quality prospects.", count, location)
	}

	return strings.TrimSpace(fmt.Sprintf(`
You are an AI assistant specializing in B2B lead generation, with a mandate for 100%% accuracy, using Google Search as your verification tool.
A user's business is described as: %q. They need qualified leads.
Find up to %d real, existing businesses in the %q industry located in or around %q.
%s

Primary Directive: Prioritize small-to-medium-sized businesses (SMBs) with websites that clearly need improvement (e.g., outdated, not mobile-friendly, poor SEO). Avoid large corporations.

Execution Protocol (Follow these steps exactly):
1. Search & Identify: Use Google Search for %q in %q. Identify a list of potential SMBs from the results.
2. Verify & Research: For each potential lead, visit their official website. Use their website and their Google Business Profile to verify all information. Do not use unverified third-party directory sites.
3. Analyze Weaknesses: Scrutinize the website for specific, actionable flaws relevant to the user's services (%q). This analysis is critical for the justification field.
4. Format Output: Compile the verified data into a single, clean JSON array string. No text or markdown outside the JSON.

Data Integrity Mandates (CRITICAL - NON-NEGOTIABLE):
- "name": The official, full business name.
- "description": A concise, one-sentence summary of the business.
- "address": The verified, physical street address from their official site or Google Business Profile.
- "website": The full, official, and working website URL. MUST start with http or https. If no website exists, use an empty string.
- "email": THE MOST IMPORTANT RULE. You are strictly forbidden from inventing, guessing, fabricating, or assuming an email address. You may ONLY return an email address if it is explicitly visible and written on the business's official website (e.g., on a 'Contact Us' page or in the footer). If you cannot find a publicly listed email, the value for this field MUST be an empty string (""). There are zero exceptions. A fake email invalidates all your work.
- "phone": Same rule as email. Only a phone number that is publicly listed on the official website or Google Business Profile; otherwise an empty string.
- "justification": A highly specific, actionable analysis (2-3 sentences) that provides the perfect 'foot-in-the-door' reason for outreach. It must directly connect a tangible weakness on their website to the specific services offered by the user (%q). Do not be generic.

Final Check: Before returning the JSON, review every field for every lead to ensure it complies with all Data Integrity Mandates. Accuracy is paramount.
`, summary, count, industry, location, locationInstruction, industry, location, summary, summary))
}

func outreachPrompt(summary string, lead entity.CandidateLead, siteURL, meetingLink, snippet string) string {
	snippetInstruction := ""
	if snippet != "" {
		snippetInstruction = fmt.Sprintf("\n- Crucially, you must naturally integrate the following point into the email to make your offer more compelling: %q", snippet)
	}

	callToAction := "Suggest a brief call to discuss further."
	if meetingLink != "" {
		callToAction = fmt.Sprintf("Include this meeting link for them to book a call: %s", meetingLink)
	}

	return strings.TrimSpace(fmt.Sprintf(`
You are a professional B2B sales copywriter drafting a personalized cold outreach email.

Your Company (Sender): Offers services based on this summary: %q. The company's website is %s.
The Prospect (Recipient): Is %q, a business described as: %q. Their website is %s, and a potential contact email we found is %q.
The specific reason we are contacting them is: %s.

Your Task:
1. Use the specific justification (%q) as the primary pain point to address in the email.
2. Draft a concise, compelling, and personalized email (under 150 words). The tone should be helpful, not overly salesy. Use clear formatting with short paragraphs and newlines to ensure it is easy to read.
   - Start by acknowledging something specific about their business.
   - Introduce your service as the direct solution to the specific pain point identified.
   - Clearly mention your company's name.%s
   - End with a clear, low-friction call to action. %s
3. Determine the recipient's email address for the suggested_email field. Use the provided email %q if it exists and is not an empty string. If the provided email is empty (""), you MUST return an empty string "" for the suggested_email field. DO NOT under any circumstances invent or suggest a generic email.

Do not use placeholders like [Your Name]. The email should be ready to send, signed off generically.
`, summary, siteURL, lead.Name, lead.Description, lead.Website, lead.ContactEmail, lead.Justification, lead.Justification, snippetInstruction, callToAction, lead.ContactEmail))
}
