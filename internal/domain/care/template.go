package care

import (
	"fmt"
	"time"
)

// Fixed clock times for generated items. The surgery item itself keeps the
// exact registered time; everything else lands on these.
const (
	medicationStopHour = 9
	examHour           = 10
	noticeHour         = 14
	injectionHour      = 7
	dressingHour       = 10
	painControlHour    = 8
)

// BuildCarePlanItems expands the standard care template around the surgery
// time. The result depends only on the arguments: same surgery time, type
// and stop-days always produce the same item set, in the same order.
//
// medicationStopDays overrides the surgery type's value when positive.
func BuildCarePlanItems(surgeryAt time.Time, st *SurgeryType, medicationStopDays int) []*CarePlanItem {
	stopDays := st.MedicationStopDays
	if medicationStopDays > 0 {
		stopDays = medicationStopDays
	}
	if stopDays <= 0 {
		stopDays = 7
	}

	day := func(offset, hour int) time.Time {
		d := surgeryAt.AddDate(0, 0, offset)
		return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, surgeryAt.Location())
	}

	items := []*CarePlanItem{
		{
			Title:       "Stop regular medication",
			Description: fmt.Sprintf("Stop blood-thinning and regular medication %d days before surgery.", stopDays),
			Category:    CategoryMedication,
			Priority:    PriorityCritical,
			ScheduledAt: day(-stopDays, medicationStopHour),
		},
	}

	if st.PreOpExamRequired {
		items = append(items, &CarePlanItem{
			Title:       "Pre-operative examination",
			Description: "Blood work, ECG and chest X-ray ahead of surgery.",
			Category:    CategoryExam,
			Priority:    PriorityNormal,
			ScheduledAt: day(-3, examHour),
		})
	}

	items = append(items,
		&CarePlanItem{
			Title:       "Surgery briefing",
			Description: "Review admission instructions and consent forms.",
			Category:    CategoryNotice,
			Priority:    PriorityNormal,
			ScheduledAt: day(-1, noticeHour),
		},
		&CarePlanItem{
			Title:       "Begin fasting",
			Description: "Nothing by mouth from this point until after surgery.",
			Category:    CategoryMeal,
			Priority:    PriorityCritical,
			ScheduledAt: day(-1, 0),
		},
		&CarePlanItem{
			Title:       "Pre-operative injection",
			Description: "Prophylactic antibiotics and pre-op preparation.",
			Category:    CategoryInjection,
			Priority:    PriorityCritical,
			ScheduledAt: day(0, injectionHour),
		},
		&CarePlanItem{
			Title:       st.Name,
			Description: "Surgery.",
			Category:    CategoryTreatment,
			Priority:    PriorityCritical,
			ScheduledAt: surgeryAt,
		},
	)

	for i := 1; i <= st.DefaultStayDays; i++ {
		items = append(items,
			&CarePlanItem{
				Title:       fmt.Sprintf("Wound check and dressing (day %d)", i),
				Description: "Inspect the surgical site and change the dressing.",
				Category:    CategoryTreatment,
				Priority:    PriorityNormal,
				ScheduledAt: day(i, dressingHour),
			},
			&CarePlanItem{
				Title:       fmt.Sprintf("Pain control (day %d)", i),
				Description: "Scheduled analgesics; escalate if pain persists.",
				Category:    CategoryMedication,
				Priority:    PriorityNormal,
				ScheduledAt: day(i, painControlHour),
			},
		)
	}

	items = append(items,
		&CarePlanItem{
			Title:       "Discharge instructions",
			Description: "Home care guidance, prescriptions and warning signs.",
			Category:    CategoryNotice,
			Priority:    PriorityNormal,
			ScheduledAt: day(st.DefaultStayDays, noticeHour),
		},
		&CarePlanItem{
			Title:       "Follow-up examination",
			Description: "Outpatient wound review one week after discharge.",
			Category:    CategoryExam,
			Priority:    PriorityNormal,
			ScheduledAt: day(st.DefaultStayDays+7, examHour),
		},
	)

	return items
}
