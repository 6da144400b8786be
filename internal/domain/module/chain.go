package module

import (
	"fmt"
	"net/url"
)

// RunningBoardChain lists running-board candidates, section specific first
func RunningBoardChain(section string) []string {
	return []string{
		fmt.Sprintf("%s/dashboard/%s_dashboard", section, section),
		fmt.Sprintf("%s/hub/%s_hub", section, section),
		fmt.Sprintf("applications/%s/handler", section),
		PrototypeSpecifier,
	}
}

// ProgramChain lists candidates for a program selected in a section's console
func ProgramChain(section, programID string) []string {
	return []string{
		fmt.Sprintf("%s/applications/%s/handler", section, programID),
		fmt.Sprintf("applications/%s/handler", programID),
	}
}

// TableReportChain lists table-reporting candidates, shared report first
func TableReportChain(section string) []string {
	return []string{
		"shared/reporting/table_report",
		fmt.Sprintf("%s/reporting/%s_report", section, section),
	}
}

// FallbackURL is the last-resort route when no module resolves
func FallbackURL(applicationID, sectionID string) string {
	return "/" + url.PathEscape(applicationID) + "?" + url.Values{"section": {sectionID}}.Encode()
}
