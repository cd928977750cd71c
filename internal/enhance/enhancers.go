package enhance

import (
	"context"
	"math"
	"strings"

	"jobhunt/internal/ai"
	"jobhunt/internal/model"
	"jobhunt/internal/prompt"
	"jobhunt/internal/resume"

	"golang.org/x/sync/errgroup"
)

// Registry 返回全部内置来源的评分器。LinkedIn 在缺少清洗描述时回退到 feed 正文。
func Registry(gen ai.Generator, cv resume.Provider) map[model.Source]Enhancer {
	plain := &scorer{gen: gen, resume: cv}
	return map[model.Source]Enhancer{
		model.SourceLinkedIn: &scorer{gen: gen, resume: cv, fallbackKey: "content_text"},
		model.SourceLevels:   plain,
		model.SourceBuiltIn:  plain,
		model.SourceIndeed:   plain,
	}
}

// scorer 调用 AI 对职位与简历的匹配度打分。
type scorer struct {
	gen         ai.Generator
	resume      resume.Provider
	fallbackKey string
}

// scored 是评分提示词约定的 JSON 结构。
type scored struct {
	RelevanceScore  *float64 `json:"relevanceScore" validate:"required,min=0,max=100"`
	RelevanceReason string   `json:"relevanceReason"`
	Recommendation  string   `json:"recommendation" validate:"required,oneof=Apply Consider Skip"`
}

func (s *scorer) Enhance(ctx context.Context, jobs []model.CleanJob) []Result {
	results := make([]Result, len(jobs))
	var g errgroup.Group
	for i, job := range jobs {
		g.Go(func() error {
			results[i] = s.enhanceOne(ctx, job)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (s *scorer) enhanceOne(ctx context.Context, job model.CleanJob) Result {
	if job.JobDescription == "" && s.fallbackKey != "" {
		job.JobDescription = strings.TrimSpace(job.DetailString(s.fallbackKey))
	}
	if !job.Describable() {
		return Result{JobID: job.JobID, Reason: "missing description, skills and experience"}
	}

	p := prompt.Render(enhancementPrompt, map[string]string{
		"resumeData":                s.resume.Text(),
		"company":                   job.Company,
		"role":                      job.Role,
		"location":                  job.Location,
		"workArrangement":           string(job.WorkArrangement),
		"compensation":              job.Compensation,
		"yearsOfExperienceRequired": job.YearsOfExperienceRequired,
		"hardSkillsRequired":        job.HardSkillsRequired,
		"jobDescription":            job.JobDescription,
	})
	reply, err := ai.GenerateJSON[scored](ctx, s.gen, job.JobID, p)
	if err != nil {
		return Result{JobID: job.JobID, Reason: err.Error()}
	}

	return Result{JobID: job.JobID, OK: true, Job: model.EnhancedJob{
		CleanJob:        job,
		RelevanceScore:  int(math.Round(*reply.RelevanceScore)),
		RelevanceReason: strings.TrimSpace(reply.RelevanceReason),
		Recommendation:  model.Recommendation(reply.Recommendation),
		UploadedToSheet: false,
	}}
}
