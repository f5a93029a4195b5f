package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	statsStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	lineStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0BE83"))
	meanStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	crossStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	axisStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	trackStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	windowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0BE83"))
	handleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	bannerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("1"))
	tipStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("236"))
)
