package caselink

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CaseRecord is one support case. Id fields are only written when empty.
type CaseRecord struct {
	Row              int
	OrganizationID   string
	ContactID        string
	Type             string
	SubType          string
	Category         string
	Summary          string
	Subject          string
	Description      string
	OrganizationText string
	PersonText       string
}

// Diagnostic kinds.
const (
	KindOrganization = "organization"
	KindPerson       = "person"
)

// Diagnostic describes a resolution that failed although its best fuzzy
// candidate scored at least Thresholds.NearMiss.
type Diagnostic struct {
	Row       int     `json:"row"`
	Kind      string  `json:"kind"`
	Query     string  `json:"query"`
	Candidate string  `json:"candidate"`
	Score     float64 `json:"score"`
}

// Report summarizes a run.
type Report struct {
	RunID               string        `json:"runId"`
	Processed           int           `json:"processed"`
	OrganizationsFilled int           `json:"organizationsFilled"`
	ContactsFilled      int           `json:"contactsFilled"`
	BackFilled          int           `json:"backFilled"`
	Labeled             int           `json:"labeled"`
	StageHits           map[Stage]int `json:"stageHits"`
	LabelHits           map[Stage]int `json:"labelHits"`
	Diagnostics         []Diagnostic  `json:"diagnostics,omitempty"`
}

// References are the raw reference tables of a run.
type References struct {
	Organizations []ReferenceRow
	People        []ReferenceRow
}

// Pipeline links and labels case records.
type Pipeline struct {
	cfg        Config
	orgs       *Resolver
	people     *Resolver
	types      *Classifier
	subTypes   *Classifier
	categories *Classifier
	logger     *zap.Logger
}

// NewPipeline validates cfg, indexes the reference tables and prepares the
// resolvers and classifiers. source may be nil.
func NewPipeline(ctx context.Context, cfg Config, refs References, rules RuleSet, source SimilaritySource, logger *zap.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if source == nil {
		source = Unavailable{}
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rules.Type == nil || rules.SubType == nil || rules.Category == nil {
		return nil, fmt.Errorf("%w: missing table", ErrInvalidRuleTable)
	}

	normalizer := NewNormalizer(cfg.LegalSuffixes)
	orgIndex := BuildIndex(refs.Organizations, normalizer.Organization)
	personIndex := BuildIndex(refs.People, normalizer.Person)
	logger.Info("reference indexes built",
		zap.Int("organizations", orgIndex.Len()),
		zap.Int("people", personIndex.Len()))
	for name, idx := range map[string]*ReferenceIndex{KindOrganization: orgIndex, KindPerson: personIndex} {
		if err := idx.AttachVectors(ctx, source); err != nil {
			logger.Warn("semantic name matching disabled", zap.String("index", name), zap.Error(err))
		}
	}

	th := cfg.Thresholds
	resolverOpts := []ResolverOption{
		WithResolverThresholds(th.FuzzyStrict, th.FuzzyLoose, th.EntitySemantic),
		WithSimilarity(source),
		WithResolverLogger(logger),
	}
	classifierOpts := []ClassifierOption{
		WithLabelThresholds(th.LabelSemantic, th.LabelFuzzy),
		WithClassifierLogger(logger),
	}
	return &Pipeline{
		cfg:        cfg,
		orgs:       NewResolver(orgIndex, resolverOpts...),
		people:     NewResolver(personIndex, resolverOpts...),
		types:      NewClassifier(ctx, rules.Type, source, classifierOpts...),
		subTypes:   NewClassifier(ctx, rules.SubType, source, classifierOpts...),
		categories: NewClassifier(ctx, rules.Category, source, classifierOpts...),
		logger:     logger,
	}, nil
}

// Run processes records in order, mutating them in place. A nil record
// aborts the run with ErrMalformedRecord.
func (p *Pipeline) Run(ctx context.Context, records []*CaseRecord) (Report, error) {
	report := Report{
		RunID:     uuid.NewString(),
		StageHits: make(map[Stage]int),
		LabelHits: make(map[Stage]int),
	}
	log := p.logger.With(zap.String("run", report.RunID))
	log.Info("processing cases", zap.Int("rows", len(records)))
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if rec == nil {
			return report, fmt.Errorf("%w: record %d is nil", ErrMalformedRecord, i)
		}
		p.process(ctx, rec, &report, log)
	}
	log.Info("run complete",
		zap.Int("processed", report.Processed),
		zap.Int("organizations_filled", report.OrganizationsFilled),
		zap.Int("contacts_filled", report.ContactsFilled),
		zap.Int("back_filled", report.BackFilled),
		zap.Int("labeled", report.Labeled),
		zap.Int("diagnostics", len(report.Diagnostics)))
	return report, nil
}

func (p *Pipeline) process(ctx context.Context, rec *CaseRecord, report *Report, log *zap.Logger) {
	report.Processed++
	free := NormalizeText(strings.Join([]string{rec.Summary, rec.Subject, rec.Description}, " "))

	if isBlank(rec.OrganizationID) {
		res := p.orgs.Resolve(ctx, rec.OrganizationText, free)
		if res.Matched {
			rec.OrganizationID = res.Entry.ID
			report.OrganizationsFilled++
			report.StageHits[res.Stage]++
			log.Debug("organization resolved",
				zap.Int("row", rec.Row),
				zap.String("id", res.Entry.ID),
				zap.String("stage", string(res.Stage)),
				zap.Float64("score", res.Score))
		} else {
			p.diagnose(report, rec.Row, KindOrganization, res.NearMiss)
		}
	}

	if isBlank(rec.ContactID) {
		res := p.people.Resolve(ctx, rec.PersonText, free)
		if res.Matched {
			rec.ContactID = res.Entry.ID
			report.ContactsFilled++
			report.StageHits[res.Stage]++
			log.Debug("contact resolved",
				zap.Int("row", rec.Row),
				zap.String("id", res.Entry.ID),
				zap.String("stage", string(res.Stage)),
				zap.Float64("score", res.Score))
			if isBlank(rec.OrganizationID) && res.Entry.ParentID != "" {
				rec.OrganizationID = res.Entry.ParentID
				report.BackFilled++
				log.Debug("organization back-filled from contact",
					zap.Int("row", rec.Row),
					zap.String("id", res.Entry.ParentID))
			}
		} else {
			p.diagnose(report, rec.Row, KindPerson, res.NearMiss)
		}
	}

	fields := []WeightedField{
		{Text: rec.Summary, Weight: p.cfg.Weights.Summary},
		{Text: rec.Subject, Weight: p.cfg.Weights.Subject},
		{Text: rec.Description, Weight: p.cfg.Weights.Description},
	}
	if isBlank(rec.Summary) && isBlank(rec.Subject) && isBlank(rec.Description) {
		return
	}
	wrote := false
	for _, target := range []struct {
		field      *string
		classifier *Classifier
	}{
		{&rec.Type, p.types},
		{&rec.SubType, p.subTypes},
		{&rec.Category, p.categories},
	} {
		if !p.cfg.OverwriteLabels && !isBlank(*target.field) {
			continue
		}
		label := target.classifier.Classify(ctx, fields)
		*target.field = label.Value
		report.LabelHits[label.Stage]++
		wrote = true
	}
	if wrote {
		report.Labeled++
		log.Debug("labels assigned",
			zap.Int("row", rec.Row),
			zap.String("type", rec.Type),
			zap.String("sub_type", rec.SubType),
			zap.String("category", rec.Category))
	}
}

func (p *Pipeline) diagnose(report *Report, row int, kind string, near *NearMiss) {
	if near == nil || near.Score < p.cfg.Thresholds.NearMiss {
		return
	}
	report.Diagnostics = append(report.Diagnostics, Diagnostic{
		Row:       row,
		Kind:      kind,
		Query:     near.Query,
		Candidate: near.Candidate,
		Score:     near.Score,
	})
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
