package chatbot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func structured(m map[string]interface{}) ResponseData {
	return ResponseData{Structured: m}
}

func TestExtractProjectsAlternatePathsEquivalent(t *testing.T) {
	items := []interface{}{
		map[string]interface{}{"project_id": "P1", "title": "Marina Vista"},
	}

	topLevel := ExtractProjects(structured(map[string]interface{}{"projects": items}))
	nested := ExtractProjects(structured(map[string]interface{}{
		"data": map[string]interface{}{"projects": items},
	}))

	assert.Equal(t, topLevel, nested)
}

func TestExtractProjectsPathOrder(t *testing.T) {
	// "projects" outranks "properties" when both are present.
	d := structured(map[string]interface{}{
		"properties": []interface{}{map[string]interface{}{"id": "FROM_PROPERTIES"}},
		"projects":   []interface{}{map[string]interface{}{"id": "FROM_PROJECTS"}},
	})

	cards := ExtractProjects(d)
	require.Len(t, cards, 1)
	assert.Equal(t, "FROM_PROJECTS", cards[0].ProjectID)
}

func TestExtractProjectsSkipsEmptyArrays(t *testing.T) {
	d := structured(map[string]interface{}{
		"projects": []interface{}{},
		"listings": []interface{}{map[string]interface{}{"id": "L1"}},
	})

	cards := ExtractProjects(d)
	require.Len(t, cards, 1)
	assert.Equal(t, "L1", cards[0].ProjectID)
}

func TestExtractProjectsSimilaritySortDescending(t *testing.T) {
	d := structured(map[string]interface{}{
		"projects": []interface{}{
			map[string]interface{}{"id": "a", "similarity_percentage": 0.4},
			map[string]interface{}{"id": "b", "similarity_percentage": 0.9},
			map[string]interface{}{"id": "c", "similarity_percentage": 0.1},
		},
	})

	cards := ExtractProjects(d)
	require.Len(t, cards, 3)
	assert.Equal(t, []int{90, 40, 10}, []int{
		cards[0].Match.SimilarityPercentage,
		cards[1].Match.SimilarityPercentage,
		cards[2].Match.SimilarityPercentage,
	})
}

func TestExtractProjectsFieldAliases(t *testing.T) {
	d := structured(map[string]interface{}{
		"searchResults": map[string]interface{}{
			"projects": []interface{}{
				map[string]interface{}{
					"projectId":      "EKB-9",
					"name":           "Creek Rise",
					"developer_name": "Emaar",
					"region":         "Dubai",
					"price":          "950000",
					"thumbnail":      "https://cdn.example/creek.jpg",
					"listing_type":   "off_plan",
					"link":           "https://example.com/creek-rise",
					"match": map[string]interface{}{
						"similarity": 72.4,
						"content":    "matches budget and bedrooms",
					},
				},
			},
		},
	})

	cards := ExtractProjects(d)
	require.Len(t, cards, 1)

	c := cards[0]
	assert.Equal(t, "EKB-9", c.ProjectID)
	assert.Equal(t, "Creek Rise", c.Title)
	assert.Equal(t, "Emaar", c.Developer)
	assert.Equal(t, "Dubai", c.Emirate)
	assert.Equal(t, 950000.0, c.StartingPrice)
	assert.Equal(t, "https://cdn.example/creek.jpg", c.CoverImage)
	assert.Equal(t, "off_plan", c.UnitType)
	assert.Equal(t, "https://example.com/creek-rise", c.URL)
	assert.Equal(t, 72, c.Match.SimilarityPercentage)
	assert.Equal(t, "matches budget and bedrooms", c.Match.Content)
}

func TestExtractProjectsMalformedItems(t *testing.T) {
	d := structured(map[string]interface{}{
		"projects": []interface{}{
			"just a string",
			42.0,
			map[string]interface{}{"project_id": "OK"},
			nil,
		},
	})

	cards := ExtractProjects(d)
	require.Len(t, cards, 1)
	assert.Equal(t, "OK", cards[0].ProjectID)
}

func TestExtractProjectsTotalAbsence(t *testing.T) {
	assert.Nil(t, ExtractProjects(ResponseData{}))
	assert.Nil(t, ExtractProjects(ResponseData{Raw: "no projects here"}))
	assert.Nil(t, ExtractProjects(structured(map[string]interface{}{"content": "hello"})))
}

func TestNormalizeSimilarity(t *testing.T) {
	cases := []struct {
		in   float64
		want int
	}{
		{0, 0},
		{-3, 0},
		{0.87, 87},
		{0.525, 53},
		{1, 100},
		{1.4, 1}, // >1 is already a percentage, only rounded
		{72.4, 72},
		{99.6, 100},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, normalizeSimilarity(tc.in), "input %v", tc.in)
	}
}

func TestReplyText(t *testing.T) {
	assert.Equal(t, "opaque", ReplyText(ResponseData{Raw: "opaque"}))
	assert.Equal(t, "hi", ReplyText(structured(map[string]interface{}{"content": "hi"})))
	assert.Equal(t, "hi", ReplyText(structured(map[string]interface{}{"text": "hi"})))
	assert.Equal(t, "nested", ReplyText(structured(map[string]interface{}{
		"response": map[string]interface{}{"content": "nested"},
	})))
	assert.Equal(t, "", ReplyText(structured(map[string]interface{}{"projects": []interface{}{}})))
}
