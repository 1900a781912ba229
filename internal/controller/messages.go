package controller

import (
	m "github.com/marsh-hen/refix/internal/model"
)

// Message types delivered to the Bubble Tea model by channel listeners.
type scanResultMsg struct {
	result m.FileScanResult
}

type scanNoticeMsg struct {
	notice m.ScanNotice
}

// scanStreamClosedMsg signals that one of the scan channels has drained.
type scanStreamClosedMsg struct {
	notices bool
}

type scanDoneMsg struct {
	err error
}

type applyReportMsg struct {
	report m.FileReport
}

type applyDoneMsg struct{}
