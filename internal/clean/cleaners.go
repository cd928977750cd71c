package clean

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"jobhunt/internal/ai"
	"jobhunt/internal/convert"
	"jobhunt/internal/model"
	"jobhunt/internal/prompt"

	"golang.org/x/sync/errgroup"
)

// Registry 返回全部内置来源的清洗器。
func Registry(gen ai.Generator) map[model.Source]Cleaner {
	return map[model.Source]Cleaner{
		model.SourceLinkedIn: &sourceCleaner{gen: gen, describe: describeLinkedIn},
		model.SourceLevels:   &sourceCleaner{gen: gen, describe: describeLevels},
		model.SourceBuiltIn:  &sourceCleaner{gen: gen, describe: describeBuiltIn, backfill: backfillBuiltIn},
		model.SourceIndeed:   &sourceCleaner{gen: gen, describe: describeIndeed, backfill: backfillIndeed},
	}
}

// sourceCleaner 组合来源相关的描述拼接与字段回填，AI 抽取逻辑共享。
type sourceCleaner struct {
	gen      ai.Generator
	describe func(model.RawJob) string
	backfill func(model.RawJob, *model.CleanJob)
}

func (c *sourceCleaner) Clean(ctx context.Context, jobs []model.RawJob) []Result {
	results := make([]Result, len(jobs))
	var g errgroup.Group
	for i, job := range jobs {
		g.Go(func() error {
			results[i] = c.cleanOne(ctx, job)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (c *sourceCleaner) cleanOne(ctx context.Context, raw model.RawJob) Result {
	description := c.describe(raw)
	if description == "" {
		return Result{JobID: raw.JobID, Reason: "empty description"}
	}

	p := prompt.Render(extractionPrompt, map[string]string{"jobDescription": description})
	info, err := ai.GenerateJSON[extracted](ctx, c.gen, raw.JobID, p)
	if err != nil {
		return Result{JobID: raw.JobID, Reason: err.Error()}
	}

	job := model.CleanJob{
		RawJob:                    raw,
		WorkArrangement:           parseArrangement(string(info.WorkArrangement)),
		Compensation:              specified(info.Compensation),
		Company:                   specified(info.Company),
		Location:                  specified(info.Location),
		Role:                      specified(info.Role),
		PublishedDate:             convert.ParseTimeSafely(specified(info.PublishedDate)),
		YearsOfExperienceRequired: specified(info.YearsOfExperienceRequired),
		HardSkillsRequired:        specified(info.HardSkillsRequired),
		JobDescription:            description,
	}
	if c.backfill != nil {
		c.backfill(raw, &job)
	}
	return Result{JobID: raw.JobID, OK: true, Job: job}
}

// extracted 是抽取提示词约定的 JSON 结构，所有字段可缺省。
type extracted struct {
	WorkArrangement           field `json:"workArrangement"`
	Compensation              field `json:"compensation"`
	Company                   field `json:"company"`
	Location                  field `json:"location"`
	Role                      field `json:"role"`
	PublishedDate             field `json:"publishedDate"`
	YearsOfExperienceRequired field `json:"yearsOfExperienceRequired"`
	HardSkillsRequired        field `json:"hardSkillsRequired"`
}

// field 接受字符串、数字、字符串数组或 null。
type field string

func (f *field) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = field(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = field(n.String())
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*f = field(strings.Join(list, ", "))
		return nil
	}
	if string(data) == "null" {
		*f = ""
		return nil
	}
	return fmt.Errorf("unsupported value %s", data)
}

func specified(f field) string {
	if prompt.IsUnspecified(string(f)) {
		return ""
	}
	return strings.TrimSpace(string(f))
}

func parseArrangement(value string) model.WorkArrangement {
	v := strings.ToLower(strings.TrimSpace(value))
	switch {
	case v == "":
		return ""
	case strings.Contains(v, "hybrid"):
		return model.WorkHybrid
	case strings.Contains(v, "remote"):
		return model.WorkRemote
	case strings.Contains(v, "on-site"), strings.Contains(v, "onsite"), strings.Contains(v, "on site"), strings.Contains(v, "in-office"), strings.Contains(v, "in office"):
		return model.WorkOnSite
	}
	return ""
}

func describeLinkedIn(raw model.RawJob) string {
	return prompt.Join(
		raw.DetailString("title"),
		raw.DetailString("company"),
		raw.DetailString("location"),
		raw.DetailString("content_text"),
	)
}

func describeLevels(raw model.RawJob) string {
	return prompt.Join(
		raw.DetailString("title"),
		raw.DetailString("headerDetails"),
		raw.DetailString("compensation"),
		raw.DetailString("description"),
	)
}

func describeBuiltIn(raw model.RawJob) string {
	return prompt.Join(
		raw.DetailString("title"),
		raw.DetailString("company"),
		raw.DetailString("location"),
		raw.DetailString("workArrengement"),
		raw.DetailString("seniorityLevel"),
		raw.DetailString("datePublished"),
		raw.DetailString("description"),
		raw.DetailString("topSkills"),
	)
}

func describeIndeed(raw model.RawJob) string {
	parts := []string{
		raw.DetailString("title"),
		raw.DetailString("company"),
		raw.DetailString("location"),
		raw.DetailString("workArrangement"),
		raw.DetailString("compensation"),
		raw.DetailString("jobType"),
		raw.DetailString("description"),
	}
	if insights, ok := raw.Details["insights"].(map[string]any); ok {
		keys := make([]string, 0, len(insights))
		for k := range insights {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			parts = append(parts, k+": "+insightValue(insights[k]))
		}
	}
	return prompt.Join(parts...)
}

func insightValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// backfillBuiltIn 在 AI 未给出时用资历级别与技能标签回填。
func backfillBuiltIn(raw model.RawJob, job *model.CleanJob) {
	if job.YearsOfExperienceRequired == "" {
		job.YearsOfExperienceRequired = strings.TrimSpace(raw.DetailString("seniorityLevel"))
	}
	if job.HardSkillsRequired == "" {
		job.HardSkillsRequired = strings.TrimSpace(raw.DetailString("topSkills"))
	}
}

// backfillIndeed 在 AI 未给出时用页面字段回填。
func backfillIndeed(raw model.RawJob, job *model.CleanJob) {
	if job.WorkArrangement == "" {
		job.WorkArrangement = parseArrangement(raw.DetailString("workArrangement"))
	}
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = strings.TrimSpace(raw.DetailString(key))
		}
	}
	fill(&job.Compensation, "compensation")
	fill(&job.Company, "company")
	fill(&job.Location, "location")
	fill(&job.Role, "title")
}
