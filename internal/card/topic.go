package card

import "fmt"

// Category is the broad subject area of a card's problems.
type Category string

const (
	CategoryArithmetic Category = "arithmetic"
	CategoryAlgebra    Category = "algebra"
	CategoryGeometry   Category = "geometry"
	CategoryLogic      Category = "logic"
	CategoryStatistics Category = "statistics"
)

// AllCategories returns every category in display order.
func AllCategories() []Category {
	return []Category{
		CategoryArithmetic,
		CategoryAlgebra,
		CategoryGeometry,
		CategoryLogic,
		CategoryStatistics,
	}
}

// Topic is a subtopic code within a category, e.g. "fractions".
type Topic string

const (
	TopicAddition       Topic = "addition"
	TopicSubtraction    Topic = "subtraction"
	TopicMultiplication Topic = "multiplication"
	TopicDivision       Topic = "division"
	TopicFractions      Topic = "fractions"
	TopicEquations      Topic = "equations"
	TopicInequalities   Topic = "inequalities"
	TopicExpressions    Topic = "expressions"
	TopicPatterns       Topic = "patterns"
	TopicArea           Topic = "area"
	TopicPerimeter      Topic = "perimeter"
	TopicAngles         Topic = "angles"
	TopicVolume         Topic = "volume"
	TopicSequences      Topic = "sequences"
	TopicDeduction      Topic = "deduction"
	TopicSets           Topic = "sets"
	TopicMean           Topic = "mean"
	TopicMedian         Topic = "median"
	TopicProbability    Topic = "probability"
	TopicCounting       Topic = "counting"
)

// topicCategories is the closed set of topics and the category each belongs to.
var topicCategories = map[Topic]Category{
	TopicAddition:       CategoryArithmetic,
	TopicSubtraction:    CategoryArithmetic,
	TopicMultiplication: CategoryArithmetic,
	TopicDivision:       CategoryArithmetic,
	TopicFractions:      CategoryArithmetic,
	TopicEquations:      CategoryAlgebra,
	TopicInequalities:   CategoryAlgebra,
	TopicExpressions:    CategoryAlgebra,
	TopicPatterns:       CategoryAlgebra,
	TopicArea:           CategoryGeometry,
	TopicPerimeter:      CategoryGeometry,
	TopicAngles:         CategoryGeometry,
	TopicVolume:         CategoryGeometry,
	TopicSequences:      CategoryLogic,
	TopicDeduction:      CategoryLogic,
	TopicSets:           CategoryLogic,
	TopicMean:           CategoryStatistics,
	TopicMedian:         CategoryStatistics,
	TopicProbability:    CategoryStatistics,
	TopicCounting:       CategoryStatistics,
}

// AllTopics returns every topic code grouped by category.
func AllTopics() []Topic {
	var out []Topic
	for _, c := range AllCategories() {
		out = append(out, TopicsIn(c)...)
	}
	return out
}

// TopicsIn returns the topics of a category in a stable order.
func TopicsIn(c Category) []Topic {
	ordered := []Topic{
		TopicAddition, TopicSubtraction, TopicMultiplication, TopicDivision, TopicFractions,
		TopicEquations, TopicInequalities, TopicExpressions, TopicPatterns,
		TopicArea, TopicPerimeter, TopicAngles, TopicVolume,
		TopicSequences, TopicDeduction, TopicSets,
		TopicMean, TopicMedian, TopicProbability, TopicCounting,
	}
	var out []Topic
	for _, t := range ordered {
		if topicCategories[t] == c {
			out = append(out, t)
		}
	}
	return out
}

// CategoryOf returns the category a topic belongs to.
func CategoryOf(t Topic) (Category, bool) {
	c, ok := topicCategories[t]
	return c, ok
}

// ParseTopic validates a topic code.
func ParseTopic(s string) (Topic, error) {
	t := Topic(s)
	if _, ok := topicCategories[t]; !ok {
		return "", fmt.Errorf("unknown topic code %q", s)
	}
	return t, nil
}
