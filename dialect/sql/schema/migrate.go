package schema

import (
	"fmt"

	"ariga.io/atlas/sql/migrate"
)

// RecreatePlan returns the migration plan dropping the given views in
// reverse order and creating them again. Views must be recreated whenever a
// storage table they read changes.
func RecreatePlan(d, name string, views []*View) (*migrate.Plan, error) {
	plan := &migrate.Plan{Name: name, Transactional: true}
	for i := len(views) - 1; i >= 0; i-- {
		stmt, err := DropViewSQL(d, views[i])
		if err != nil {
			return nil, err
		}
		plan.Changes = append(plan.Changes, &migrate.Change{
			Cmd:     stmt,
			Comment: fmt.Sprintf("drop view %q", views[i].Name),
		})
	}
	for _, v := range views {
		stmt, err := CreateViewSQL(d, v)
		if err != nil {
			return nil, err
		}
		plan.Changes = append(plan.Changes, &migrate.Change{
			Cmd:     stmt,
			Comment: fmt.Sprintf("create view %q", v.Name),
		})
	}
	return plan, nil
}

// WriteRecreatePlan writes the plan recreating the views as a versioned
// migration file of dir.
func WriteRecreatePlan(dir migrate.Dir, d, version, name string, views []*View) error {
	plan, err := RecreatePlan(d, name, views)
	if err != nil {
		return err
	}
	plan.Version = version
	if err := migrate.NewPlanner(nil, dir).WritePlan(plan); err != nil {
		return fmt.Errorf("dialect/sql/schema: write migration: %w", err)
	}
	return nil
}
