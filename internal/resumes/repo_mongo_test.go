package resumes

import (
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestLookupFilterEquals(t *testing.T) {
	filter, err := lookupFilter(Equals(FieldCity, "St. Louis"))
	require.NoError(t, err)
	re, ok := filter["city"].(primitive.Regex)
	require.True(t, ok)
	require.Equal(t, `^St\. Louis$`, re.Pattern)
	require.Equal(t, "i", re.Options)
}

func TestLookupFilterContentSearchesBothFields(t *testing.T) {
	filter, err := lookupFilter(Contains(FieldContent, "c++"))
	require.NoError(t, err)
	or, ok := filter["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 2)
	first := or[0].(bson.M)["htmlContent"].(primitive.Regex)
	require.Equal(t, regexp.QuoteMeta("c++"), first.Pattern)
	require.Contains(t, or[1].(bson.M), "text")
}

func TestLookupFilterAnyOfAndSkills(t *testing.T) {
	filter, err := lookupFilter(AnyOf(SkillDatabases, []string{"Postgres", "Mongo"}))
	require.NoError(t, err)
	in := filter["skills.databases"].(bson.M)["$in"].(bson.A)
	require.Len(t, in, 2)
	require.Equal(t, "^Postgres$", in[0].(primitive.Regex).Pattern)

	filter, err = lookupFilter(AnySkill("kube"))
	require.NoError(t, err)
	require.Len(t, filter["$or"].(bson.A), len(AllSkillCategories))
}

func TestLookupFilterWindowAndNames(t *testing.T) {
	from := baseTime.AddDate(0, -1, 0)
	filter, err := lookupFilter(UploadedBetween(from, baseTime))
	require.NoError(t, err)
	bounds := filter["uploadedAt"].(bson.M)
	require.Equal(t, from, bounds["$gte"])
	require.Equal(t, baseTime, bounds["$lte"])

	filter, err = lookupFilter(EitherName("Lee"))
	require.NoError(t, err)
	require.Len(t, filter["$or"].(bson.A), 2)

	_, err = lookupFilter(Lookup{})
	require.True(t, errors.Is(err, ErrInvalidCriteria))
}

func TestSaveUpdateSetsUploadedAtOnInsertOnly(t *testing.T) {
	update, err := saveUpdate(Resume{ID: "a", FirstName: "Ann", City: "Austin", UploadedAt: baseTime})
	require.NoError(t, err)

	set := update["$set"].(bson.M)
	require.NotContains(t, set, "uploadedAt")
	require.Equal(t, "Ann", set["firstName"])
	require.Equal(t, "Austin", set["city"])

	onInsert := update["$setOnInsert"].(bson.M)
	require.Equal(t, baseTime, onInsert["uploadedAt"])
}
