package chatbot

import (
	"math"
	"sort"
	"strconv"
)

// ProjectMatch carries the AI service's relevance verdict for one card.
type ProjectMatch struct {
	SimilarityPercentage int    `json:"similarityPercentage"`
	Content              string `json:"content"`
}

// ProjectCard is the normalized recommendation shape handed to clients.
type ProjectCard struct {
	ProjectID     string       `json:"projectId"`
	Title         string       `json:"title"`
	Developer     string       `json:"developer"`
	Emirate       string       `json:"emirate"`
	StartingPrice float64      `json:"startingPrice"`
	CoverImage    string       `json:"coverImage"`
	UnitType      string       `json:"unitType"`
	URL           string       `json:"url"`
	Match         ProjectMatch `json:"match"`
}

// Known locations of the project candidate list across historical webhook
// payload shapes. Probed in order, first non-empty array wins.
var candidatePaths = [][]string{
	{"projects"},
	{"data", "projects"},
	{"properties"},
	{"listings"},
	{"results"},
	{"response", "projects"},
	{"searchResults", "projects"},
}

// Field aliases, first match wins.
var (
	idKeys        = []string{"project_id", "projectId", "id"}
	titleKeys     = []string{"project_title", "title", "name"}
	developerKeys = []string{"developer_name", "developer", "company"}
	emirateKeys   = []string{"emirate", "region", "city", "location"}
	priceKeys     = []string{"starting_price", "price", "min_price"}
	coverKeys     = []string{"cover_image", "image_url", "image", "thumbnail"}
	unitTypeKeys  = []string{"unit_type", "listing_type", "property_type"}
	urlKeys       = []string{"website_url", "url", "link"}
	matchObjKeys  = []string{"match", "similarity", "relevance"}
	simKeys       = []string{"similarity_percentage", "similarity", "score"}
	reasonKeys    = []string{"content", "reasoning"}
)

// ExtractProjects pulls the candidate list out of a webhook payload and
// maps it to cards sorted descending by similarity. Malformed payloads
// degrade to an empty list, never an error.
func ExtractProjects(d ResponseData) []ProjectCard {
	if d.Structured == nil {
		return nil
	}

	items := findCandidates(d.Structured)
	if len(items) == 0 {
		return nil
	}

	cards := make([]ProjectCard, 0, len(items))
	for _, it := range items {
		item, ok := it.(map[string]interface{})
		if !ok {
			continue
		}
		cards = append(cards, toCard(item))
	}

	sort.SliceStable(cards, func(i, j int) bool {
		return cards[i].Match.SimilarityPercentage > cards[j].Match.SimilarityPercentage
	})
	return cards
}

func findCandidates(m map[string]interface{}) []interface{} {
	for _, path := range candidatePaths {
		if arr, ok := dig(m, path); ok && len(arr) > 0 {
			return arr
		}
	}
	return nil
}

func dig(m map[string]interface{}, path []string) ([]interface{}, bool) {
	cur := m
	for i, key := range path {
		v, ok := cur[key]
		if !ok {
			return nil, false
		}
		if i == len(path)-1 {
			arr, ok := v.([]interface{})
			return arr, ok
		}
		cur, ok = v.(map[string]interface{})
		if !ok {
			return nil, false
		}
	}
	return nil, false
}

func toCard(item map[string]interface{}) ProjectCard {
	card := ProjectCard{
		ProjectID:     firstString(item, idKeys),
		Title:         firstString(item, titleKeys),
		Developer:     firstString(item, developerKeys),
		Emirate:       firstString(item, emirateKeys),
		StartingPrice: firstNumber(item, priceKeys),
		CoverImage:    firstString(item, coverKeys),
		UnitType:      firstString(item, unitTypeKeys),
		URL:           firstString(item, urlKeys),
	}

	// The relevance verdict lives in a sub-object in some shapes and on
	// the item itself in others.
	matchSrc := item
	for _, k := range matchObjKeys {
		if sub, ok := item[k].(map[string]interface{}); ok {
			matchSrc = sub
			break
		}
	}
	card.Match.SimilarityPercentage = normalizeSimilarity(firstNumber(matchSrc, simKeys))
	card.Match.Content = firstString(matchSrc, reasonKeys)

	return card
}

// normalizeSimilarity brings similarity onto the 0–100 integer scale.
// Fractions in [0,1] are percentages in disguise; anything above 1 is
// assumed to be a percentage already and only rounded.
func normalizeSimilarity(v float64) int {
	if v <= 0 {
		return 0
	}
	if v <= 1 {
		return int(math.Round(v * 100))
	}
	return int(math.Round(v))
}

func firstString(m map[string]interface{}, keys []string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func firstNumber(m map[string]interface{}, keys []string) float64 {
	for _, k := range keys {
		switch n := m[k].(type) {
		case float64:
			return n
		case int:
			return float64(n)
		case string:
			if f, err := strconv.ParseFloat(n, 64); err == nil {
				return f
			}
		}
	}
	return 0
}
