package routes

// Names of routes the guard redirects to.
const (
	NameLogin            = "Login"
	NameRegister         = "Register"
	NameSummaryDashboard = "SummaryDashboard"
	NameNotFound         = "NotFound"
)

// DefaultLandingPath is where authenticated sessions land when they open a
// guest-only page.
const DefaultLandingPath = "/summary-dashboard"

// DefaultRecords returns the application's route list.
func DefaultRecords() []Record {
	protected := Meta{RequiresAuth: true}
	guest := Meta{GuestOnly: true}

	return []Record{
		{Path: "/", Redirect: DefaultLandingPath, Meta: protected},
		{Path: "/login", Name: NameLogin, Component: Component{View: "auth/LoginPage"}, Meta: guest},
		{Path: "/register", Name: NameRegister, Component: Component{View: "auth/RegisterPage"}, Meta: guest},
		{Path: "/chat", Name: "Chat", Component: Component{View: "main/ChatPage"}, Meta: protected},
		{Path: "/settings", Name: "Settings", Component: Component{View: "NotFoundPage", Lazy: true}, Meta: protected},
		{Path: "/profile", Name: "Profile", Component: Component{View: "NotFoundPage", Lazy: true}, Meta: protected},
		{Path: "/mesx", Name: "MESX", Component: Component{View: "MESX/mesxDashboard"}, Meta: protected},
		{Path: "/wmsx", Name: "WMSX", Component: Component{View: "WMSX/wmsxDashboard"}, Meta: protected},
		{Path: "/qmsx", Name: "QMSX", Component: Component{View: "QMSX/qmsxDashboard"}, Meta: protected},
		{Path: "/mmsx", Name: "MMSX", Component: Component{View: "MMSX/mmsxDashboard"}, Meta: protected},
		{Path: "/pmsx", Name: "PMSX", Component: Component{View: "PMSX/pmsxDashboard"}, Meta: protected},
		{Path: "/time-tracking", Name: "TimeTracking", Component: Component{View: "time-tracking/TimeTrackingPage"}, Meta: protected},
		{
			Path:      DefaultLandingPath,
			Name:      NameSummaryDashboard,
			Component: Component{View: "dashboard/SummaryDashboard"},
			Meta:      Meta{RequiresAuth: true, TitleKey: "SummaryDashboard"},
		},
		{Path: "/workshop-summary-dashboard", Name: "MESXDashboard", Component: Component{View: "dashboard/SummaryDashboard"}, Meta: protected},
		{Path: "/rnd-dashboard", Name: "RndDashboard", Component: Component{View: "RnD/RnDDashboard"}, Meta: protected},
		{Path: "/rnd-work-tracking", Name: "RndWorkTracking", Component: Component{View: "RnD/RndWorkManagement"}, Meta: protected},
		{Path: "/work-management-khtc", Name: "KHTCWorkManagement", Component: Component{View: "time-tracking/WorkManagementKHTC"}, Meta: protected},
		{Path: WildcardPath, Name: NameNotFound, Component: Component{View: "NotFoundPage", Lazy: true}},
	}
}

var defaultTable = MustNewTable(DefaultRecords())

// Default returns the application's route table.
func Default() *Table {
	return defaultTable
}
