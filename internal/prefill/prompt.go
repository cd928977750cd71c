package prefill

const coverLetterPrompt = `
You are an expert cover letter writer. Generate a compelling, personalized cover letter for the candidate based on their resume and the specific job posting.

## CANDIDATE'S COMPLETE RESUME:
{{resumeData}}

## JOB POSTING DETAILS:
**Company**: {{company}}
**Role**: {{role}}
**Years of Experience Required**: {{yearsOfExperienceRequired}}
**Hard Skills Required**: {{hardSkillsRequired}}
**Job Description**: {{jobDescription}}

## JOB ANALYSIS:
**Relevance Score**: {{relevanceScore}}/100
**Relevance Reason**: {{relevanceReason}}

## COVER LETTER REQUIREMENTS:
- 3 paragraphs, not more than 300 words.
- Open with interest in the role and company, connect 1-2 relevant experiences to the requirements
  without repeating the resume, and close with a call to action.
- Address gaps from the relevance analysis positively.
- Simple language, no cliches or business jargon.

## OUTPUT FORMAT:
Return ONLY a JSON object with this exact structure:
{
  "coverLetter": "<complete cover letter text>"
}
`
