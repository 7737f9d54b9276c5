package caselink

// ColumnCandidates lists the accepted header names of every logical column,
// in priority order.
type ColumnCandidates struct {
	OrganizationName []string `json:"organizationName" yaml:"organizationName"`
	PersonName       []string `json:"personName" yaml:"personName"`
	Summary          []string `json:"summary" yaml:"summary"`
	Subject          []string `json:"subject" yaml:"subject"`
	Description      []string `json:"description" yaml:"description"`
	OrganizationID   []string `json:"organizationId" yaml:"organizationId"`
	ContactID        []string `json:"contactId" yaml:"contactId"`
	Type             []string `json:"type" yaml:"type"`
	SubType          []string `json:"subType" yaml:"subType"`
	Category         []string `json:"category" yaml:"category"`

	OrgRefID       []string `json:"orgRefId" yaml:"orgRefId"`
	OrgRefName     []string `json:"orgRefName" yaml:"orgRefName"`
	PersonRefID    []string `json:"personRefId" yaml:"personRefId"`
	PersonRefName  []string `json:"personRefName" yaml:"personRefName"`
	PersonRefFirst []string `json:"personRefFirst" yaml:"personRefFirst"`
	PersonRefLast  []string `json:"personRefLast" yaml:"personRefLast"`
	PersonRefOrgID []string `json:"personRefOrgId" yaml:"personRefOrgId"`
}

func defaultColumnCandidates() ColumnCandidates {
	return ColumnCandidates{
		OrganizationName: []string{"Account Name", "AccountName", "Account", "_Account_Name__c", "Account_Name__c"},
		PersonName:       []string{"Contact Name", "ContactName", "Contact", "Contact FullName", "_Contact_Name__c"},
		Summary:          []string{"Email Summary", "_Email_Summary__c", "Email_Summary__c", "Summary", "Email Subject"},
		Subject:          []string{"Subject", "Case Subject", "Email_Subject__c"},
		Description:      []string{"Description", "_Description", "Description__c", "Body", "Email Body"},
		OrganizationID:   []string{"AccountId", "Account Id", "Account_Id"},
		ContactID:        []string{"ContactId", "Contact Id", "Contact_Id"},
		Type:             []string{"Type"},
		SubType:          []string{"Sub_Type__c", "Sub-Type"},
		Category:         []string{"Category__c", "Category"},

		OrgRefID:       []string{"Id", "ID", "AccountId", "Account Id", "accountid"},
		OrgRefName:     []string{"Name", "Account Name", "AccountName", "name"},
		PersonRefID:    []string{"Id", "ID", "ContactId", "Contact Id", "contactid"},
		PersonRefName:  []string{"FullName", "Name", "ContactName", "Contact Name"},
		PersonRefFirst: []string{"FirstName", "First Name", "First"},
		PersonRefLast:  []string{"LastName", "Last Name", "Last"},
		PersonRefOrgID: []string{"AccountId", "Account Id", "Account_Id", "AccountID"},
	}
}

// DefaultColumnCandidates returns the built-in column detection candidates.
func DefaultColumnCandidates() ColumnCandidates {
	return defaultColumnCandidates()
}

// withDefaults fills the lists left nil with the built-in candidates, so a
// config only needs to name the columns it overrides.
func (c ColumnCandidates) withDefaults() ColumnCandidates {
	d := defaultColumnCandidates()
	return ColumnCandidates{
		OrganizationName: pickStrings(c.OrganizationName, d.OrganizationName),
		PersonName:       pickStrings(c.PersonName, d.PersonName),
		Summary:          pickStrings(c.Summary, d.Summary),
		Subject:          pickStrings(c.Subject, d.Subject),
		Description:      pickStrings(c.Description, d.Description),
		OrganizationID:   pickStrings(c.OrganizationID, d.OrganizationID),
		ContactID:        pickStrings(c.ContactID, d.ContactID),
		Type:             pickStrings(c.Type, d.Type),
		SubType:          pickStrings(c.SubType, d.SubType),
		Category:         pickStrings(c.Category, d.Category),
		OrgRefID:         pickStrings(c.OrgRefID, d.OrgRefID),
		OrgRefName:       pickStrings(c.OrgRefName, d.OrgRefName),
		PersonRefID:      pickStrings(c.PersonRefID, d.PersonRefID),
		PersonRefName:    pickStrings(c.PersonRefName, d.PersonRefName),
		PersonRefFirst:   pickStrings(c.PersonRefFirst, d.PersonRefFirst),
		PersonRefLast:    pickStrings(c.PersonRefLast, d.PersonRefLast),
		PersonRefOrgID:   pickStrings(c.PersonRefOrgID, d.PersonRefOrgID),
	}
}

func pickStrings(custom, fallback []string) []string {
	if custom == nil {
		return cloneStrings(fallback)
	}
	return cloneStrings(custom)
}
