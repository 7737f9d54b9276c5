package caselink

import (
	"fmt"
	"strings"
)

// Rule attaches keyword phrases to one label.
type Rule struct {
	Label    string   `json:"label" yaml:"label"`
	Keywords []string `json:"keywords" yaml:"keywords"`
}

// RuleTable is a validated label enumeration with its keyword rules. Rule
// order is the tie-break order of keyword scoring.
type RuleTable struct {
	Name    string
	Labels  []string
	Default string
	Rules   []Rule
}

// catchAllLabels are tried in order when a table names no default.
var catchAllLabels = []string{"Miscellaneous Type", "Miscellaneous SubType", "Case Management"}

// NewRuleTable validates and builds a table. Every rule label and the
// default must belong to labels. An empty default picks the first standard
// catch-all present in labels, else the first label. Keywords are lowercased,
// trimmed and deduplicated.
func NewRuleTable(name string, labels []string, def string, rules []Rule) (*RuleTable, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: %s: no labels", ErrInvalidRuleTable, name)
	}
	allowed := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		if strings.TrimSpace(l) == "" {
			return nil, fmt.Errorf("%w: %s: empty label", ErrInvalidRuleTable, name)
		}
		if _, dup := allowed[l]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate label %q", ErrInvalidRuleTable, name, l)
		}
		allowed[l] = struct{}{}
	}
	if def == "" {
		def = labels[0]
		for _, c := range catchAllLabels {
			if _, ok := allowed[c]; ok {
				def = c
				break
			}
		}
	} else if _, ok := allowed[def]; !ok {
		return nil, fmt.Errorf("%w: %s: default %q is not an allowed label", ErrInvalidRuleTable, name, def)
	}
	seenRule := make(map[string]struct{}, len(rules))
	compiled := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if _, ok := allowed[r.Label]; !ok {
			return nil, fmt.Errorf("%w: %s: rule label %q is not an allowed label", ErrInvalidRuleTable, name, r.Label)
		}
		if _, dup := seenRule[r.Label]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate rule for %q", ErrInvalidRuleTable, name, r.Label)
		}
		seenRule[r.Label] = struct{}{}
		compiled = append(compiled, Rule{Label: r.Label, Keywords: normalizeKeywordList(r.Keywords)})
	}
	return &RuleTable{
		Name:    name,
		Labels:  cloneStrings(labels),
		Default: def,
		Rules:   compiled,
	}, nil
}

// Allows reports whether label is a member of the enumeration.
func (t *RuleTable) Allows(label string) bool {
	for _, l := range t.Labels {
		if l == label {
			return true
		}
	}
	return false
}

func normalizeKeywordList(list []string) []string {
	out := make([]string, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, kw := range list {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}

// RuleSet groups the three label families of a case.
type RuleSet struct {
	Type     *RuleTable
	SubType  *RuleTable
	Category *RuleTable
}

// Table names used in rule files and logs.
const (
	TableType     = "type"
	TableSubType  = "subType"
	TableCategory = "category"
)

// DefaultRuleSet returns the built-in tables.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		Type:     mustRuleTable(TableType, AllowedTypes, "Miscellaneous Type", typeRules),
		SubType:  mustRuleTable(TableSubType, AllowedSubTypes, "Miscellaneous SubType", subTypeRules),
		Category: mustRuleTable(TableCategory, AllowedCategories, "Case Management", categoryRules),
	}
}

func mustRuleTable(name string, labels []string, def string, rules []Rule) *RuleTable {
	t, err := NewRuleTable(name, labels, def, rules)
	if err != nil {
		panic(err)
	}
	return t
}

// AllowedTypes is the Type enumeration.
var AllowedTypes = []string{
	"Administrative",
	"App Development",
	"Client Project",
	"Configuration",
	"Configuration Change",
	"CPQ Issues",
	"CSM Issues",
	"Feature Request",
	"Marketing",
	"Miscellaneous Type",
	"New Feature",
	"Problem",
	"Question",
	"Sales Issues",
	"Sales Non-CPQ Related Issues",
}

// AllowedSubTypes is the Sub-Type enumeration.
var AllowedSubTypes = []string{
	"ServiceDesk+ App",
	"Credit App",
	"Email Template",
	"SpringCM Project",
	"Salesforce Project",
	"Miscellaneous SubType",
}

// AllowedCategories is the Category enumeration.
var AllowedCategories = []string{
	"Client Training",
	"System Access",
	"Data Extraction",
	"Planning",
	"Integration",
	"Reporting",
	"Case Management",
	"Stakeholder Management",
	"Client Research",
	"Project Scope",
	"File Management",
	"Data Mapping",
	"Sales Coordination",
	"System Setup",
	"Miscellaneous Category",
	"Administrative",
	"Documentation (BRD, SOW, etc.)",
	"Implementation and Recommendations",
	"Issue Resolution",
}

var typeRules = []Rule{
	{Label: "CPQ Issues", Keywords: []string{
		"cpq", "sbqq", "steelbrick", "quote", "quotes", "pricing", "price", "pricebook", "price book",
		"product configuration", "configure product", "product config", "catalog", "bundle", "option",
		"quote line", "quote-line", "pricing error", "price error", "pricebook entry", "quote adjustment", "configure",
	}},
	{Label: "Problem", Keywords: []string{
		"bug", "issue", "error", "not working", "fails", "failure", "exception", "unable to", "can't", "cannot",
		"503", "500 error", "stack trace", "crash", "timeout", "unexpected",
	}},
	{Label: "Configuration", Keywords: []string{
		"salesforce", "validation rule", "workflow", "page layout", "permission set", "permission", "profile",
		"field level", "apex", "trigger", "flow", "process builder", "metadata", "custom field", "record type",
		"object configuration", "picklist", "layout", "permission set group", "sharing rule",
	}},
	{Label: "Configuration Change", Keywords: []string{
		"rename field", "add field", "change picklist", "deploy", "update layout", "change page layout",
		"modify field", "update record type", "schema change", "config change", "configuration change",
	}},
	{Label: "Feature Request", Keywords: []string{
		"feature request", "enhancement", "would like", "request feature", "add feature", "enhancement request",
		"wish list", "improve", "improvement", "new capability",
	}},
	{Label: "Client Project", Keywords: []string{
		"implementation", "go live", "project plan", "sprint", "deployment", "onboarding project", "project kickoff",
		"statement of work", "sow", "project scope", "transition plan",
	}},
	{Label: "App Development", Keywords: []string{
		"integration", "api", "endpoint", "webhook", "sdk", "developer", "code", "deploy", "build", "ci/cd", "microservice",
		"app", "application", "service",
	}},
	{Label: "Administrative", Keywords: []string{
		"create user", "reset password", "license", "deactivate user", "profile change", "permission",
		"role change", "org wide", "org change", "admin task", "administrative", "admin",
	}},
	{Label: "CSM Issues", Keywords: []string{
		"renewal", "success plan", "health score", "csm", "customer success", "renew", "churn", "billing dispute",
	}},
	{Label: "Sales Issues", Keywords: []string{
		"lead", "opportunity", "pipeline", "forecast", "sales process", "close date", "deal", "opp",
	}},
	{Label: "Sales Non-CPQ Related Issues", Keywords: []string{
		"pricing approval", "discount approval", "quote approval", "contract approval", "sales agreement", "payment term",
	}},
	{Label: "Marketing", Keywords: []string{
		"campaign", "pardot", "marketing cloud", "utm", "mailchimp", "email campaign", "lead source", "marketing",
	}},
	{Label: "New Feature", Keywords: []string{
		"new feature", "new module", "add module", "introduce feature", "launch feature",
	}},
	{Label: "Question", Keywords: []string{
		"how do i", "can we", "is it possible", "clarify", "question", "what is the", "how to", "help me", "need help",
	}},
	{Label: "Miscellaneous Type"},
}

var subTypeRules = []Rule{
	{Label: "ServiceDesk+ App", Keywords: []string{"servicedesk", "service desk", "service-desk", "sd+", "servicedesk+"}},
	{Label: "Credit App", Keywords: []string{"credit app", "credit application", "credit-application", "creditapp"}},
	{Label: "Email Template", Keywords: []string{
		"email template", "template", "email template update", "html template", "email body", "email template change",
	}},
	{Label: "SpringCM Project", Keywords: []string{
		"springcm", "spring cm", "docu", "docusign", "document generation", "content library",
	}},
	{Label: "Salesforce Project", Keywords: []string{
		"salesforce project", "deployment", "release", "migration", "rollback", "salesforce project deploy",
	}},
	{Label: "Miscellaneous SubType"},
}

var categoryRules = []Rule{
	{Label: "Client Training", Keywords: []string{"training", "walkthrough", "demo", "onboarding", "enablement", "training session", "train"}},
	{Label: "System Access", Keywords: []string{"login", "sso", "access", "permission", "mfa", "lockout", "account locked", "password reset", "access denied"}},
	{Label: "Data Extraction", Keywords: []string{"extract", "export", "etl", "data export", "loader", "data dump", "data extract", "data pull"}},
	{Label: "Planning", Keywords: []string{"plan", "planning", "roadmap", "timeline", "milestone", "planning session"}},
	{Label: "Integration", Keywords: []string{"integrat", "integration", "api", "webhook", "endpoint", "middleware", "boomi", "mule", "workato", "connector"}},
	{Label: "Reporting", Keywords: []string{"report", "dashboard", "report type", "analytics", "kpi", "reporting", "tableau", "power bi", "powerbi"}},
	{Label: "Case Management", Keywords: []string{"case management", "sla", "case status", "case owner", "case escalation"}},
	{Label: "Stakeholder Management", Keywords: []string{"stakeholder", "raic", "steering", "communication plan", "stakeholder update"}},
	{Label: "Client Research", Keywords: []string{"research", "discovery", "analysis", "investigate", "assessment", "discovery call"}},
	{Label: "Project Scope", Keywords: []string{"scope", "out of scope", "change request", "cr", "scope change", "requirements"}},
	{Label: "File Management", Keywords: []string{"file", "document", "attachment", "library", "springcm", "content", "document repository"}},
	{Label: "Data Mapping", Keywords: []string{"mapping", "map fields", "field map", "data map", "transform map", "map import"}},
	{Label: "Sales Coordination", Keywords: []string{"sales coordination", "sales ops", "sales support", "quote handoff"}},
	{Label: "System Setup", Keywords: []string{"setup", "configure org", "instance setup", "initial setup", "environment setup", "sandbox setup"}},
	{Label: "Miscellaneous Category"},
	{Label: "Administrative", Keywords: []string{"admin", "administrative task", "organizational", "org admin"}},
	{Label: "Documentation (BRD, SOW, etc.)", Keywords: []string{"brd", "sow", "documentation", "requirements doc", "specification", "design doc", "proposal"}},
	{Label: "Implementation and Recommendations", Keywords: []string{"implementation", "recommendation", "recommendations", "best practice", "advice", "suggested approach"}},
	{Label: "Issue Resolution", Keywords: []string{"resolve", "resolution", "fix", "workaround", "patch", "hotfix", "issue resolution"}},
}
