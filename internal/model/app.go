// Package model defines the tracked application set and the record types
// persisted by the usage rollup service.
package model

import (
	"fmt"
	"sort"
	"strings"
)

// AppType identifies one tracked Copilot surface.
type AppType string

// Tracked applications. The set is closed: queries are validated against it,
// and adding an app means adding a constant here plus an appInfo entry with a
// new schema version.
const (
	AppTeams         AppType = "Teams"
	AppCopilotChat   AppType = "CopilotChat"
	AppOutlook       AppType = "Outlook"
	AppWord          AppType = "Word"
	AppExcel         AppType = "Excel"
	AppPowerPoint    AppType = "PowerPoint"
	AppOneNote       AppType = "OneNote"
	AppLoop          AppType = "Loop"
	AppMAC           AppType = "MAC"
	AppDesigner      AppType = "Designer"
	AppSharePoint    AppType = "SharePoint"
	AppPlanner       AppType = "Planner"
	AppWhiteboard    AppType = "Whiteboard"
	AppStream        AppType = "Stream"
	AppForms         AppType = "Forms"
	AppCopilotAction AppType = "CopilotAction"
	AppWebPlugin     AppType = "WebPlugin"

	// AppAll is the synthetic all-up tag: active iff any tracked app is active.
	AppAll AppType = "All"
)

// AppSetVersion is bumped whenever the tracked set changes, so stored data can
// be told apart from data written by an older enumeration.
const AppSetVersion = 2

type appInfo struct {
	// countOnly marks apps whose source reports interaction counts but no
	// per-app last-activity date.
	countOnly bool
	// since is the AppSetVersion that introduced the app.
	since int
}

var apps = map[AppType]appInfo{
	AppTeams:         {since: 1},
	AppCopilotChat:   {since: 1},
	AppOutlook:       {since: 1},
	AppWord:          {since: 1},
	AppExcel:         {since: 1},
	AppPowerPoint:    {since: 1},
	AppOneNote:       {since: 1},
	AppLoop:          {since: 1},
	AppMAC:           {countOnly: true, since: 2},
	AppDesigner:      {countOnly: true, since: 2},
	AppSharePoint:    {countOnly: true, since: 2},
	AppPlanner:       {countOnly: true, since: 2},
	AppWhiteboard:    {countOnly: true, since: 2},
	AppStream:        {countOnly: true, since: 2},
	AppForms:         {countOnly: true, since: 2},
	AppCopilotAction: {countOnly: true, since: 2},
	AppWebPlugin:     {countOnly: true, since: 2},
}

// TrackedApps returns every tracked app in stable order, excluding AppAll.
func TrackedApps() []AppType {
	out := make([]AppType, 0, len(apps))
	for a := range apps {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CountOnly reports whether the app's source supplies only interaction counts.
func (a AppType) CountOnly() bool {
	return apps[a].countOnly
}

// String returns the app tag as stored in row keys and filters.
func (a AppType) String() string {
	return string(a)
}

// ParseApp validates a user-supplied app name against the tracked set.
// AppAll is accepted: it is queryable like any other tag.
func ParseApp(s string) (AppType, error) {
	a := AppType(strings.TrimSpace(s))
	if a == AppAll {
		return a, nil
	}
	if _, ok := apps[a]; !ok {
		return "", fmt.Errorf("unknown app %q", s)
	}
	return a, nil
}

// ParseApps validates a list of app names, rejecting empty input.
func ParseApps(names []string) ([]AppType, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("empty app list")
	}
	out := make([]AppType, 0, len(names))
	for _, n := range names {
		a, err := ParseApp(n)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
