package main

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/carebook/carebook/internal/config"
	"github.com/carebook/carebook/internal/domain/schedule"
	"github.com/carebook/carebook/internal/platform/db"
)

// seedCmd populates a tenant schema with demo departments, doctors, patients,
// schedule rules, surgery types, and two weeks of generated slots.
func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed demo data into a tenant schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
			patients, _ := cmd.Flags().GetInt("patients")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			// Pin a single connection so search_path holds for every query,
			// and carry it in the context so RunInTx can open transactions.
			conn, err := pool.Acquire(ctx)
			if err != nil {
				return fmt.Errorf("acquire connection: %w", err)
			}
			defer conn.Release()

			if _, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", schema)); err != nil {
				return fmt.Errorf("set search_path: %w", err)
			}
			ctx = context.WithValue(ctx, db.DBConnKey, conn)

			gofakeit.Seed(time.Now().UnixNano())

			if err := seedAll(ctx, pool, patients); err != nil {
				return err
			}
			fmt.Println("Seed complete.")
			return nil
		},
	}
	cmd.Flags().String("schema", "tenant_default", "Target schema to seed")
	cmd.Flags().Int("patients", 50, "Number of demo patients to create")
	return cmd
}

var seedDepartments = []string{
	"Orthopedics",
	"Cardiology",
	"General Surgery",
	"Internal Medicine",
	"Ophthalmology",
}

func seedAll(ctx context.Context, pool *pgxpool.Pool, patientCount int) error {
	conn := db.ConnFromContext(ctx)
	deptIDs := make([]uuid.UUID, 0, len(seedDepartments))
	doctorIDs := make([]uuid.UUID, 0, len(seedDepartments)*3)

	for _, name := range seedDepartments {
		id := uuid.New()
		if _, err := conn.Exec(ctx, `
			INSERT INTO department (id, name, created_at, updated_at)
			VALUES ($1, $2, now(), now())`, id, name); err != nil {
			return fmt.Errorf("seed department %s: %w", name, err)
		}
		deptIDs = append(deptIDs, id)

		for i := 0; i < 3; i++ {
			docID := uuid.New()
			if _, err := conn.Exec(ctx, `
				INSERT INTO practitioner (id, department_id, name, specialty, created_at, updated_at)
				VALUES ($1, $2, $3, $4, now(), now())`,
				docID, id, "Dr. "+gofakeit.LastName(), name); err != nil {
				return fmt.Errorf("seed practitioner: %w", err)
			}
			doctorIDs = append(doctorIDs, docID)
		}
	}
	fmt.Printf("Seeded %d departments, %d doctors.\n", len(deptIDs), len(doctorIDs))

	for i := 0; i < patientCount; i++ {
		if _, err := conn.Exec(ctx, `
			INSERT INTO patient (id, name, email, phone, birth_date, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, now(), now())`,
			uuid.New(), gofakeit.Name(), gofakeit.Email(), gofakeit.Phone(),
			gofakeit.DateRange(
				time.Date(1940, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC),
			)); err != nil {
			return fmt.Errorf("seed patient: %w", err)
		}
	}
	fmt.Printf("Seeded %d patients.\n", patientCount)

	// Weekday clinic hours with a lunch break for every department.
	ruleRepo := schedule.NewRuleRepoPG(pool)
	slotRepo := schedule.NewSlotRepoPG(pool)
	scheduleSvc := schedule.NewService(ruleRepo, slotRepo, db.RunInTx)

	lunchStart, lunchEnd := "12:00", "13:00"
	for _, deptID := range deptIDs {
		for dow := 1; dow <= 5; dow++ {
			rule := &schedule.ScheduleRule{
				DepartmentID:    deptID,
				DayOfWeek:       dow,
				StartTime:       "09:00",
				EndTime:         "17:00",
				BreakStart:      &lunchStart,
				BreakEnd:        &lunchEnd,
				SlotDurationMin: 30,
				CapacityPerSlot: gofakeit.Number(2, 5),
			}
			if err := scheduleSvc.CreateRule(ctx, rule); err != nil {
				return fmt.Errorf("seed schedule rule: %w", err)
			}
		}
	}

	total := 0
	for _, deptID := range deptIDs {
		for d := 0; d < 14; d++ {
			day := time.Now().AddDate(0, 0, d)
			n, err := scheduleSvc.GenerateSlots(ctx, deptID, day, nil)
			if err != nil {
				return fmt.Errorf("generate slots: %w", err)
			}
			total += n
		}
	}
	fmt.Printf("Generated %d slots over the next two weeks.\n", total)

	surgeryTypes := []struct {
		name     string
		stay     int
		admit    bool
		preOp    bool
		stopDays int
	}{
		{"Hip replacement", 5, true, true, 7},
		{"Knee arthroscopy", 1, true, true, 5},
		{"Cataract surgery", 0, false, false, 3},
		{"Appendectomy", 2, true, false, 7},
	}
	for _, st := range surgeryTypes {
		if _, err := conn.Exec(ctx, `
			INSERT INTO surgery_type (id, name, default_stay_days, admission_required,
				pre_op_exam_required, medication_stop_days, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, now(), now())`,
			uuid.New(), st.name, st.stay, st.admit, st.preOp, st.stopDays); err != nil {
			return fmt.Errorf("seed surgery type %s: %w", st.name, err)
		}
	}
	fmt.Printf("Seeded %d surgery types.\n", len(surgeryTypes))

	return nil
}
