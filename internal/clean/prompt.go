package clean

const extractionPrompt = `
You are an expert job posting analyzer. Extract key information from the job description below.

## JOB DESCRIPTION:
{{jobDescription}}

## EXTRACTION TASK:
1. Work Arrangement: "Remote", "Hybrid" or "On-Site"
2. Compensation: salary or range with currency and time unit, e.g. "100k-120k CAD/year"
3. Company: the company name
4. Location: city, state or country; partial locations are fine
5. Role: the specific position title
6. Published Date: the posting date
7. Years of Experience Required
8. Hard Skills Required: languages, frameworks, tools

## OUTPUT FORMAT:
Return ONLY a JSON object with this exact structure:
{
  "workArrangement": "<Remote|Hybrid|On-Site>",
  "compensation": "<compensation or 'Not specified'>",
  "company": "<company name or 'Not specified'>",
  "location": "<location or 'Not specified'>",
  "role": "<role title or 'Not specified'>",
  "publishedDate": "<YYYY-MM-DD or 'Not specified'>",
  "yearsOfExperienceRequired": "<number of years or 'Not specified'>",
  "hardSkillsRequired": "<comma-separated skills or 'Not specified'>"
}

Use "Not specified" whenever the information is not clearly stated.
`
