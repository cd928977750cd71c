package enhance

const enhancementPrompt = `
You are an expert job analyst and career advisor. Analyze the job posting below against the candidate's resume.

## CANDIDATE'S COMPLETE RESUME:
{{resumeData}}

## JOB POSTING:
**Company**: {{company}}
**Role**: {{role}}
**Location**: {{location}}
**Work Arrangement**: {{workArrangement}}
**Compensation**: {{compensation}}
**Years of Experience Required**: {{yearsOfExperienceRequired}}
**Hard Skills Required**: {{hardSkillsRequired}}
**Job Description**: {{jobDescription}}

## ANALYSIS TASK:
1. Relevance Score from 0 to 100 for THIS candidate (90+ perfect match, 70-79 good match, below 40 skip).
2. Relevance Reason in 2-3 sentences covering skills, experience level, location and work arrangement
   preferences stated in the resume.
3. Recommendation: "Apply", "Consider" or "Skip".

## OUTPUT FORMAT:
Return ONLY a JSON object with this exact structure:
{
  "relevanceScore": <number 0-100>,
  "relevanceReason": "<detailed explanation>",
  "recommendation": "<Apply|Consider|Skip>"
}
`
