// Package catalog holds the static reference data served by the platform:
// municipal departments, training modules, and marketplace rewards.
package catalog

import (
	"slices"

	"github.com/clickclean/civic-platform/internal/core/domain"
)

// Department types used by the tracking page filter.
const (
	DeptPublicWorks    = "Public Works"
	DeptInfrastructure = "Infrastructure"
	DeptUtilities      = "Utilities"
	DeptMaintenance    = "Maintenance"
)

var departments = []domain.Department{
	{ID: "dept-1", Name: "Roads Division", Type: DeptInfrastructure, Location: "Delhi", Status: "operational", Latitude: 28.6139, Longitude: 77.2090},
	{ID: "dept-2", Name: "Sanitation Department", Type: DeptPublicWorks, Location: "Mumbai", Status: "operational", Latitude: 19.0760, Longitude: 72.8777},
	{ID: "dept-3", Name: "Street Lighting Cell", Type: DeptUtilities, Location: "Bangalore", Status: "operational", Latitude: 12.9716, Longitude: 77.5946},
	{ID: "dept-4", Name: "Water Supply Board", Type: DeptUtilities, Location: "Chennai", Status: "under_maintenance", Latitude: 13.0827, Longitude: 80.2707},
	{ID: "dept-5", Name: "Parks Maintenance Unit", Type: DeptMaintenance, Location: "Kolkata", Status: "operational", Latitude: 22.5726, Longitude: 88.3639},
}

var trainingModules = []domain.TrainingModule{
	{ID: "module-1", Title: "Reporting Civic Issues Effectively", Duration: "20 mins", Content: "How to describe, locate and photograph a problem so crews can act on it."},
	{ID: "module-2", Title: "Road Safety and Potholes", Duration: "30 mins", Content: "Recognising hazardous road damage and flagging its priority."},
	{ID: "module-3", Title: "Waste Segregation Basics", Duration: "30 mins", Content: "Separating wet, dry and hazardous waste at the source."},
	{ID: "module-4", Title: "Understanding Your Municipality", Duration: "25 mins", Content: "Which department handles what, and how escalation works."},
	{ID: "module-5", Title: "Community Reporting Ethics", Duration: "15 mins", Content: "Accuracy, privacy and respect when reporting on neighbourhoods."},
}

// Reward categories used by the marketplace filter.
var RewardCategories = []string{"Recognition", "Achievement", "Service", "Social", "Utility"}

var rewards = []domain.Reward{
	{ID: "reward-1", Name: "Civic Hero Certificate", Category: "Recognition", Points: 200, Description: "A signed certificate from the municipal commissioner."},
	{ID: "reward-2", Name: "Top Reporter Badge", Category: "Achievement", Points: 150, Description: "Profile badge for reporters with ten resolved issues."},
	{ID: "reward-3", Name: "Priority Service Pass", Category: "Service", Points: 500, Description: "Fast-track handling for your next service request."},
	{ID: "reward-4", Name: "Community Meetup Invite", Category: "Social", Points: 100, Description: "Seat at the quarterly ward meeting with local officials."},
	{ID: "reward-5", Name: "Utility Bill Voucher", Category: "Utility", Points: 750, Description: "Discount voucher applied to your next water bill."},
	{ID: "reward-6", Name: "Neighbourhood Champion Plaque", Category: "Recognition", Points: 1000, Description: "Engraved plaque displayed at the ward office."},
}

// Departments returns the departments of the given type, or all of them
// when deptType is empty or "all".
func Departments(deptType string) []domain.Department {
	if deptType == "" || deptType == "all" {
		return slices.Clone(departments)
	}
	out := make([]domain.Department, 0, len(departments))
	for _, d := range departments {
		if d.Type == deptType {
			out = append(out, d)
		}
	}
	return out
}

// Department looks up a department by id.
func Department(id string) (domain.Department, bool) {
	for _, d := range departments {
		if d.ID == id {
			return d, true
		}
	}
	return domain.Department{}, false
}

// TrainingModules returns every training module in display order.
func TrainingModules() []domain.TrainingModule {
	return slices.Clone(trainingModules)
}

// TrainingModule looks up a module by id.
func TrainingModule(id string) (domain.TrainingModule, bool) {
	for _, m := range trainingModules {
		if m.ID == id {
			return m, true
		}
	}
	return domain.TrainingModule{}, false
}

// Rewards returns the rewards in category, or all of them when category is
// empty or "all".
func Rewards(category string) []domain.Reward {
	if category == "" || category == "all" {
		return slices.Clone(rewards)
	}
	out := make([]domain.Reward, 0, len(rewards))
	for _, r := range rewards {
		if r.Category == category {
			out = append(out, r)
		}
	}
	return out
}

// Reward looks up a reward by id.
func Reward(id string) (domain.Reward, bool) {
	for _, r := range rewards {
		if r.ID == id {
			return r, true
		}
	}
	return domain.Reward{}, false
}
