package core

import (
	"sort"
	"time"

	"github.com/RishavRaj625/Personalized-Patient-Education-System/pkg"
)

// CountByLabel is one bar of a categorical chart.
type CountByLabel struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// CountByDate is one point of a daily series.  Date is YYYY-MM-DD.
type CountByDate struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Report summarises the store for the dashboard.
type Report struct {
	TotalPatients         int            `json:"total_patients"`
	UniqueConditions      int            `json:"unique_conditions"`
	TotalMaterials        int            `json:"total_materials"`
	TotalChatMessages     int            `json:"total_chat_messages"`
	TotalInjuries         int            `json:"total_injury_assessments"`
	MaterialsByDate       []CountByDate  `json:"materials_by_date"`
	MaterialsByCondition  []CountByLabel `json:"materials_by_condition"`
	ChatMessagesByPatient []CountByLabel `json:"chat_messages_by_patient"`
	InjuriesByDate        []CountByDate  `json:"injury_assessments_by_date"`
}

// BuildReport aggregates doc.  Chat counts are keyed by patient name, with
// "Unknown" for histories whose patient is not on record.
func BuildReport(doc pkg.Document) Report {
	r := Report{
		TotalPatients:  len(doc.Patients),
		TotalMaterials: len(doc.Materials),
		TotalInjuries:  len(doc.InjuryAssessments),
	}

	names := make(map[string]string, len(doc.Patients))
	conditions := map[string]struct{}{}
	for _, p := range doc.Patients {
		names[p.ID] = p.Name
		conditions[p.Condition] = struct{}{}
	}
	r.UniqueConditions = len(conditions)

	materialDates := map[string]int{}
	materialConditions := map[string]int{}
	for _, m := range doc.Materials {
		materialDates[day(m.Timestamp)]++
		materialConditions[m.Condition]++
	}
	r.MaterialsByDate = byDate(materialDates)
	r.MaterialsByCondition = byLabel(materialConditions)

	chatCounts := map[string]int{}
	for id, msgs := range doc.ChatHistory {
		if len(msgs) == 0 {
			continue
		}
		r.TotalChatMessages += len(msgs)
		name, ok := names[id]
		if !ok {
			name = "Unknown"
		}
		chatCounts[name] += len(msgs)
	}
	r.ChatMessagesByPatient = byLabel(chatCounts)

	injuryDates := map[string]int{}
	for _, a := range doc.InjuryAssessments {
		injuryDates[day(a.Timestamp)]++
	}
	r.InjuriesByDate = byDate(injuryDates)

	return r
}

func day(t time.Time) string {
	return t.Format("2006-01-02")
}

func byDate(counts map[string]int) []CountByDate {
	out := make([]CountByDate, 0, len(counts))
	for d, n := range counts {
		out = append(out, CountByDate{Date: d, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// byLabel orders by count descending, then label.
func byLabel(counts map[string]int) []CountByLabel {
	out := make([]CountByLabel, 0, len(counts))
	for l, n := range counts {
		out = append(out, CountByLabel{Label: l, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}
