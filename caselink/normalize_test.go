package caselink

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"artifact", "line one_x000D_line two", "line one line two"},
		{"control", "a\r\nb\tc", "a b c"},
		{"punctuation", "ACME, Inc. (West)", "acme inc west"},
		{"keeps dash and plus", "C++ / Sales-Cloud", "c++ sales-cloud"},
		{"fullwidth", "ＡＣＭＥ", "acme"},
		{"compatibility forms", "½ day", "1 2 day"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeText(tc.in))
		})
	}
}

func TestNormalizeTextIsIdempotent(t *testing.T) {
	inputs := []string{
		"", "  Hello   World ", "Über-Straße 12+", "_x000D_\t\r\n", "Smith, John Q.", "ＣＰＱ quote", "a--b ++ c",
	}
	for _, in := range inputs {
		once := NormalizeText(in)
		assert.Equal(t, once, NormalizeText(once), "input %q", in)
	}
}

func TestNormalizeOrganizationName(t *testing.T) {
	assert.Equal(t, NormalizeOrganizationName("Acme"), NormalizeOrganizationName("Acme Inc."))
	assert.Equal(t, "acme widgets", NormalizeOrganizationName("Acme Widgets Corp"))
	assert.Equal(t, "globex", NormalizeOrganizationName("Globex Company LLC"))
	assert.Equal(t, "", NormalizeOrganizationName("Inc."))
}

func TestNormalizeOrganizationNameDottedSuffixes(t *testing.T) {
	assert.Equal(t, "acme", NormalizeOrganizationName("Acme L.L.C."))
	assert.Equal(t, "acme", NormalizeOrganizationName("Acme Co."))
	assert.Equal(t, "l l bean", NormalizeOrganizationName("L L Bean Inc"))
	assert.Equal(t, "acme", NewNormalizer([]string{"l.l.c"}).Organization("Acme L L C"))
}

func TestNormalizerCustomSuffixes(t *testing.T) {
	n := NewNormalizer([]string{"GmbH"})
	assert.Equal(t, "acme inc", n.Organization("Acme Inc GmbH"))
}

func TestNormalizePersonName(t *testing.T) {
	assert.Equal(t, NormalizePersonName("Jane Doe"), NormalizePersonName("Doe, Jane"))
	assert.Equal(t, "john smith", NormalizePersonName("Smith, John"))
	assert.Equal(t, "john smith", NormalizePersonName("Smith, John, Jr."))
	assert.Equal(t, "madonna", NormalizePersonName("Madonna,"))
}
