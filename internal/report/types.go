package report

import (
	"github.com/groveale/copilot-usage-scraper/internal/model"
)

// wireRow is one user's line as the reporting API returns it: a flat record
// with one last-activity field per date-reporting app and one count field per
// app. Mapped into the model's per-app maps before anything else sees it.
type wireRow struct {
	ReportRefreshDate string `json:"reportRefreshDate"`
	UserPrincipalName string `json:"userPrincipalName"`
	DisplayName       string `json:"displayName"`

	TeamsLastActivityDate       string `json:"microsoftTeamsCopilotLastActivityDate"`
	CopilotChatLastActivityDate string `json:"copilotChatLastActivityDate"`
	OutlookLastActivityDate     string `json:"outlookCopilotLastActivityDate"`
	WordLastActivityDate        string `json:"wordCopilotLastActivityDate"`
	ExcelLastActivityDate       string `json:"excelCopilotLastActivityDate"`
	PowerPointLastActivityDate  string `json:"powerPointCopilotLastActivityDate"`
	OneNoteLastActivityDate     string `json:"oneNoteCopilotLastActivityDate"`
	LoopLastActivityDate        string `json:"loopCopilotLastActivityDate"`

	TeamsInteractionCount         int `json:"microsoftTeamsCopilotInteractionCount"`
	CopilotChatInteractionCount   int `json:"copilotChatInteractionCount"`
	OutlookInteractionCount       int `json:"outlookCopilotInteractionCount"`
	WordInteractionCount          int `json:"wordCopilotInteractionCount"`
	ExcelInteractionCount         int `json:"excelCopilotInteractionCount"`
	PowerPointInteractionCount    int `json:"powerPointCopilotInteractionCount"`
	OneNoteInteractionCount       int `json:"oneNoteCopilotInteractionCount"`
	LoopInteractionCount          int `json:"loopCopilotInteractionCount"`
	MACInteractionCount           int `json:"macCopilotInteractionCount"`
	DesignerInteractionCount      int `json:"designerCopilotInteractionCount"`
	SharePointInteractionCount    int `json:"sharePointCopilotInteractionCount"`
	PlannerInteractionCount       int `json:"plannerCopilotInteractionCount"`
	WhiteboardInteractionCount    int `json:"whiteboardCopilotInteractionCount"`
	StreamInteractionCount        int `json:"streamCopilotInteractionCount"`
	FormsInteractionCount         int `json:"formsCopilotInteractionCount"`
	CopilotActionInteractionCount int `json:"copilotActionCount"`
	WebPluginInteractionCount     int `json:"webPluginInteractionCount"`
}

// reportPage is one page of the paginated report response.
type reportPage struct {
	Value    []wireRow `json:"value"`
	NextLink string    `json:"@odata.nextLink"`
}

func (w wireRow) toUsageRow() model.UsageRow {
	return model.UsageRow{
		UserKey:           w.UserPrincipalName,
		DisplayName:       w.DisplayName,
		ReportRefreshDate: w.ReportRefreshDate,
		LastActivityDates: map[model.AppType]string{
			model.AppTeams:       w.TeamsLastActivityDate,
			model.AppCopilotChat: w.CopilotChatLastActivityDate,
			model.AppOutlook:     w.OutlookLastActivityDate,
			model.AppWord:        w.WordLastActivityDate,
			model.AppExcel:       w.ExcelLastActivityDate,
			model.AppPowerPoint:  w.PowerPointLastActivityDate,
			model.AppOneNote:     w.OneNoteLastActivityDate,
			model.AppLoop:        w.LoopLastActivityDate,
		},
		InteractionCounts: map[model.AppType]int{
			model.AppTeams:         w.TeamsInteractionCount,
			model.AppCopilotChat:   w.CopilotChatInteractionCount,
			model.AppOutlook:       w.OutlookInteractionCount,
			model.AppWord:          w.WordInteractionCount,
			model.AppExcel:         w.ExcelInteractionCount,
			model.AppPowerPoint:    w.PowerPointInteractionCount,
			model.AppOneNote:       w.OneNoteInteractionCount,
			model.AppLoop:          w.LoopInteractionCount,
			model.AppMAC:           w.MACInteractionCount,
			model.AppDesigner:      w.DesignerInteractionCount,
			model.AppSharePoint:    w.SharePointInteractionCount,
			model.AppPlanner:       w.PlannerInteractionCount,
			model.AppWhiteboard:    w.WhiteboardInteractionCount,
			model.AppStream:        w.StreamInteractionCount,
			model.AppForms:         w.FormsInteractionCount,
			model.AppCopilotAction: w.CopilotActionInteractionCount,
			model.AppWebPlugin:     w.WebPluginInteractionCount,
		},
	}
}
