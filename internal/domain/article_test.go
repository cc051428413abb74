package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewArticle(t *testing.T) {
	now := time.Now()
	article := NewArticle(
		"a1",
		"Vacation Policy",
		"Vacation policy: 20 days/year",
		"Annual vacation allowance",
		CategoryPolicy,
		SourceTypeUpload,
		[]string{"general"},
		now,
	)

	require.NotNil(t, article)
	assert.Equal(t, "a1", article.ID)
	assert.Equal(t, "Vacation Policy", article.Title)
	assert.Equal(t, CategoryPolicy, article.Category)
	assert.Equal(t, []string{"general"}, article.AccessScope)
	assert.Equal(t, now, article.CreatedAt)
	assert.Equal(t, now, article.UpdatedAt)
}

func TestNewArticleDefaults(t *testing.T) {
	article := NewArticle("a1", "T", "body", "", "", SourceTypeManual, nil, time.Now())

	assert.Equal(t, CategoryGeneral, article.Category)
	assert.Equal(t, []string{ScopeAll}, article.AccessScope)
}

func TestArticleVisibleTo(t *testing.T) {
	tests := []struct {
		name    string
		scopes  []string
		scope   string
		visible bool
	}{
		{"matching scope", []string{"general"}, "general", true},
		{"non-matching scope", []string{"general"}, "engineering-only", false},
		{"wildcard scope", []string{ScopeAll}, "engineering-only", true},
		{"one of several", []string{"hr", "finance"}, "finance", true},
		{"none of several", []string{"hr", "finance"}, "engineering", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewArticle("a1", "T", "body", "", CategoryGeneral, SourceTypeManual, tt.scopes, time.Now())
			assert.Equal(t, tt.visible, a.VisibleTo(tt.scope))
		})
	}
}

func TestValidateArticle(t *testing.T) {
	valid := func() *Article {
		return NewArticle("a1", "Title", "content", "summary", CategoryGeneral, SourceTypeUpload, []string{"general"}, time.Now())
	}

	t.Run("valid article", func(t *testing.T) {
		assert.NoError(t, ValidateArticle(valid()))
	})

	t.Run("nil article", func(t *testing.T) {
		assert.Error(t, ValidateArticle(nil))
	})

	t.Run("missing ID", func(t *testing.T) {
		a := valid()
		a.ID = ""
		assert.Error(t, ValidateArticle(a))
	})

	t.Run("missing title", func(t *testing.T) {
		a := valid()
		a.Title = ""
		assert.Error(t, ValidateArticle(a))
	})

	t.Run("empty content is valid", func(t *testing.T) {
		a := valid()
		a.Content = ""
		assert.NoError(t, ValidateArticle(a))
	})

	t.Run("binary content rejected", func(t *testing.T) {
		a := valid()
		a.Content = string([]byte{0xff, 0xfe, 0x00})
		assert.Error(t, ValidateArticle(a))
	})

	t.Run("invalid category", func(t *testing.T) {
		a := valid()
		a.Category = "gossip"
		assert.Error(t, ValidateArticle(a))
	})

	t.Run("invalid source type", func(t *testing.T) {
		a := valid()
		a.SourceType = "carrier-pigeon"
		assert.Error(t, ValidateArticle(a))
	})
}

func TestParseCategory(t *testing.T) {
	assert.Equal(t, CategoryPolicy, ParseCategory("policy"))
	assert.Equal(t, CategoryHR, ParseCategory("hr"))
	assert.Equal(t, CategoryGeneral, ParseCategory("unknown-thing"))
	assert.Equal(t, CategoryGeneral, ParseCategory(""))
}

func TestGenerationErrorKindUserMessage(t *testing.T) {
	tests := []struct {
		kind     GenerationErrorKind
		contains string
	}{
		{GenerationErrModelNotFound, "unavailable"},
		{GenerationErrPermission, "not enabled"},
		{GenerationErrRateLimit, "quota"},
		{GenerationErrSafetyBlock, "filtered"},
		{GenerationErrOther, "failed"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Contains(t, tt.kind.UserMessage(), tt.contains)
		})
	}
}
