package status

import (
	"fmt"
	"strconv"
	"strings"
)

// Definition 细分状态对应的客户侧展示配置
type Definition struct {
	Category       string // pre-testing/preparation/active-testing/post-testing/final/stopped
	CustomerStatus string
	Message        string // 可含 {progress} / {reason} 占位符
	ProgressBase   *int   // nil 表示保持当前进度（On Hold）
	HasFormula     bool   // 仅 "In Progress"：progress = 40 + 0.4*test_progress
	Color          string
	Icon           string
	ActionRequired bool
	ActionType     string // approve_quote/send_sample/download_report
}

// Info Resolve 的结果
type Info struct {
	Category       string `json:"category"`
	CustomerStatus string `json:"customer_status"`
	Message        string `json:"message"`
	Progress       int    `json:"progress"`
	Color          string `json:"color"`
	Icon           string `json:"icon"`
	ActionRequired bool   `json:"action_required"`
	ActionType     string `json:"action_type,omitempty"`
	// KeepProgress 为 true 时调用方不应覆盖已有进度（hold 类状态）
	KeepProgress bool `json:"-"`
}

// 细分状态名
const (
	Submitted         = "Submitted"
	UnderReview       = "Under Review"
	QuotePreparation  = "Quote Preparation"
	QuoteSent         = "Quote Sent"
	QuoteApproved     = "Quote Approved"
	QuoteRejected     = "Quote Rejected"
	Scheduled         = "Scheduled"
	AwaitingSample    = "Awaiting Sample"
	SampleReceived    = "Sample Received"
	TestingStarted    = "Testing Started"
	InProgress        = "In Progress"
	TestsComplete     = "Tests Complete"
	ReportReview      = "Report Review"
	ReportReady       = "Report Ready"
	Completed         = "Completed"
	CertificateIssued = "Certificate Issued"
	RejectedByLab     = "Rejected by Lab"
	Cancelled         = "Cancelled"
	OnHold            = "On Hold"
)

func intPtr(v int) *int { return &v }

// definitions 状态目录，进程启动时构建一次，运行期只读
var definitions = map[string]Definition{
	// 提交与审核
	Submitted: {
		Category:       "pre-testing",
		CustomerStatus: "Submitted",
		Message:        "Your calibration request has been submitted and is awaiting lab review.",
		ProgressBase:   intPtr(5),
		Color:          "yellow",
		Icon:           "clock",
	},
	UnderReview: {
		Category:       "pre-testing",
		CustomerStatus: "Under Review",
		Message:        "Lab is reviewing your calibration requirements and preparing a quote.",
		ProgressBase:   intPtr(10),
		Color:          "yellow",
		Icon:           "search",
	},

	// 报价
	QuotePreparation: {
		Category:       "pre-testing",
		CustomerStatus: "Quote Pending",
		Message:        "Lab is preparing a cost estimate for your calibration service.",
		ProgressBase:   intPtr(15),
		Color:          "yellow",
		Icon:           "dollar",
	},
	QuoteSent: {
		Category:       "pre-testing",
		CustomerStatus: "Quote Sent",
		Message:        "Lab has sent a quote. Please review and approve to proceed.",
		ProgressBase:   intPtr(20),
		Color:          "orange",
		Icon:           "mail",
		ActionRequired: true,
		ActionType:     "approve_quote",
	},
	QuoteApproved: {
		Category:       "pre-testing",
		CustomerStatus: "Approved",
		Message:        "Quote approved! Lab is scheduling your calibration tests.",
		ProgressBase:   intPtr(25),
		Color:          "blue",
		Icon:           "check",
	},
	QuoteRejected: {
		Category:       "stopped",
		CustomerStatus: "Quote Declined",
		Message:        "You declined the quote. Request will be closed unless you contact us.",
		ProgressBase:   intPtr(20),
		Color:          "red",
		Icon:           "x",
	},

	// 排期与收样
	Scheduled: {
		Category:       "preparation",
		CustomerStatus: "Scheduled",
		Message:        "Testing scheduled. Please send product sample if not yet received by lab.",
		ProgressBase:   intPtr(30),
		Color:          "blue",
		Icon:           "calendar",
	},
	AwaitingSample: {
		Category:       "preparation",
		CustomerStatus: "Awaiting Sample",
		Message:        "Lab is waiting to receive your product sample to begin testing.",
		ProgressBase:   intPtr(30),
		Color:          "orange",
		Icon:           "package",
		ActionRequired: true,
		ActionType:     "send_sample",
	},
	SampleReceived: {
		Category:       "preparation",
		CustomerStatus: "Sample Received",
		Message:        "Lab has received your product sample and will begin testing soon.",
		ProgressBase:   intPtr(35),
		Color:          "blue",
		Icon:           "check-circle",
	},

	// 测试中
	TestingStarted: {
		Category:       "active-testing",
		CustomerStatus: "Testing Started",
		Message:        "Calibration testing has begun. You'll receive updates as testing progresses.",
		ProgressBase:   intPtr(40),
		Color:          "purple",
		Icon:           "activity",
	},
	InProgress: {
		Category:       "active-testing",
		CustomerStatus: "Testing In Progress",
		Message:        "Calibration tests are {progress}% complete.",
		HasFormula:     true, // 40% ~ 80%
		Color:          "purple",
		Icon:           "trending-up",
	},

	// 测试后
	TestsComplete: {
		Category:       "post-testing",
		CustomerStatus: "Tests Complete",
		Message:        "All calibration tests completed successfully. Lab is preparing the report.",
		ProgressBase:   intPtr(85),
		Color:          "teal",
		Icon:           "check-circle",
	},
	ReportReview: {
		Category:       "post-testing",
		CustomerStatus: "Report Review",
		Message:        "Test report is under internal quality review before being sent to you.",
		ProgressBase:   intPtr(90),
		Color:          "teal",
		Icon:           "file-text",
	},
	ReportReady: {
		Category:       "post-testing",
		CustomerStatus: "Report Ready",
		Message:        "Your calibration report is ready for review. Please download and verify.",
		ProgressBase:   intPtr(95),
		Color:          "green",
		Icon:           "download",
		ActionRequired: true,
		ActionType:     "download_report",
	},

	// 完结
	Completed: {
		Category:       "final",
		CustomerStatus: "Completed",
		Message:        "Calibration completed successfully. Certificate and report are available.",
		ProgressBase:   intPtr(100),
		Color:          "green",
		Icon:           "check-circle-2",
	},
	CertificateIssued: {
		Category:       "final",
		CustomerStatus: "Certificate Issued",
		Message:        "Calibration certificate has been issued. All documentation is complete.",
		ProgressBase:   intPtr(100),
		Color:          "green",
		Icon:           "award",
	},

	// 终止类
	RejectedByLab: {
		Category:       "stopped",
		CustomerStatus: "Rejected",
		Message:        "Lab cannot accept this request. Reason: {reason}",
		ProgressBase:   intPtr(0),
		Color:          "red",
		Icon:           "x-circle",
	},
	Cancelled: {
		Category:       "stopped",
		CustomerStatus: "Cancelled",
		Message:        "Request has been cancelled.",
		ProgressBase:   intPtr(0),
		Color:          "gray",
		Icon:           "slash",
	},
	OnHold: {
		Category:       "stopped",
		CustomerStatus: "On Hold",
		Message:        "Request is temporarily on hold. Reason: {reason}",
		ProgressBase:   nil, // 保持当前进度
		Color:          "yellow",
		Icon:           "pause",
	},
}

// highLevelToDetailed 高层状态允许携带的细分状态集合。
// 仅用于校验/派生查询，不做硬约束。
var highLevelToDetailed = map[string][]string{
	"Pending":     {Submitted, UnderReview, QuotePreparation, QuoteSent},
	"In Progress": {QuoteApproved, Scheduled, SampleReceived, TestingStarted, InProgress, TestsComplete, ReportReview},
	"Completed":   {ReportReady, Completed, CertificateIssued},
	"Rejected":    {QuoteRejected, RejectedByLab, Cancelled, OnHold},
}

// detailedFromHighLevel 高层状态变更时自动派生的细分状态
var detailedFromHighLevel = map[string]string{
	"Pending":     Submitted,
	"In Progress": TestingStarted,
	"Completed":   Completed,
	"Rejected":    RejectedByLab,
}

// milestoneOrder 客户时间轴的固定里程碑顺序
var milestoneOrder = []string{
	Submitted,
	UnderReview,
	QuoteSent,
	QuoteApproved,
	Scheduled,
	SampleReceived,
	TestingStarted,
	InProgress,
	TestsComplete,
	ReportReview,
	ReportReady,
	Completed,
}

// Resolve 返回细分状态的完整客户侧信息。
// 未知状态返回 unknown 兜底记录，永不报错。
// testProgress 仅在状态定义了进度公式时参与计算；占位符只替换
// 已提供的参数，未提供的原样保留。
func Resolve(detailedStatus string, testProgress *int, reason string) Info {
	def, ok := definitions[detailedStatus]
	if !ok {
		return Info{
			Category:       "unknown",
			CustomerStatus: detailedStatus,
			Message:        fmt.Sprintf("Status: %s", detailedStatus),
			Progress:       0,
			Color:          "gray",
			Icon:           "help-circle",
		}
	}

	info := Info{
		Category:       def.Category,
		CustomerStatus: def.CustomerStatus,
		Color:          def.Color,
		Icon:           def.Icon,
		ActionRequired: def.ActionRequired,
		ActionType:     def.ActionType,
	}

	// 进度：公式优先，其次固定基数；基数为空表示保持原进度
	if def.HasFormula && testProgress != nil {
		info.Progress = int(40 + float64(*testProgress)*0.4)
	} else if def.ProgressBase != nil {
		info.Progress = *def.ProgressBase
	} else {
		info.Progress = 0
		info.KeepProgress = true
	}

	message := def.Message
	if testProgress != nil {
		message = strings.ReplaceAll(message, "{progress}", strconv.Itoa(*testProgress))
	}
	if reason != "" {
		message = strings.ReplaceAll(message, "{reason}", reason)
	}
	info.Message = message

	return info
}

// Milestone 客户时间轴条目
type Milestone struct {
	Name         string `json:"name"`
	CustomerName string `json:"customer_name"`
	Status       string `json:"status"` // completed/current/pending
	Icon         string `json:"icon"`
	Color        string `json:"color"`
}

// Timeline 按固定里程碑顺序渲染客户时间轴：当前状态之前的里程碑为
// completed，匹配项为 current，之后为 pending。不在里程碑列表内的
// 状态（终止类等）不会出现在时间轴上。
func Timeline(currentDetailedStatus string) []Milestone {
	timeline := make([]Milestone, 0, len(milestoneOrder))
	currentReached := false

	for _, name := range milestoneOrder {
		var state string
		switch {
		case name == currentDetailedStatus:
			state = "current"
			currentReached = true
		case !currentReached:
			state = "completed"
		default:
			state = "pending"
		}

		m := Milestone{Name: name, CustomerName: name, Status: state, Icon: "circle", Color: "gray"}
		if def, ok := definitions[name]; ok {
			m.CustomerName = def.CustomerStatus
			m.Icon = def.Icon
			m.Color = def.Color
		}
		timeline = append(timeline, m)
	}

	return timeline
}

// DetailedForHighLevel 返回高层状态允许的细分状态集合
func DetailedForHighLevel(status string) []string {
	return highLevelToDetailed[status]
}

// DetailedFromHighLevel 返回高层状态自动派生的细分状态
func DetailedFromHighLevel(status string) (string, bool) {
	d, ok := detailedFromHighLevel[status]
	return d, ok
}
