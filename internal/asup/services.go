package asup

import "regexp"

// Service names
const (
	ServiceNFS         = "NFS"
	ServiceCIFS        = "CIFS"
	ServiceNDMP        = "NDMP"
	ServiceCloudTier   = "CLOUD_TIER"
	ServiceReplication = "REPLICATION"
)

// ServiceNames is the allowlist of classified services, in output order
var ServiceNames = []string{
	ServiceNFS,
	ServiceCIFS,
	ServiceNDMP,
	ServiceCloudTier,
	ServiceReplication,
}

type serviceRule struct {
	pattern *regexp.Regexp
	status  Status
}

// serviceRules lists predicates per service. Order matters: the appliance
// text is not mutually exclusive, so the first match decides.
var serviceRules = map[string][]serviceRule{
	ServiceNFS: {
		{regexp.MustCompile(`(?i)The NFS system is currently active and running`), StatusEnabled},
		{regexp.MustCompile(`(?i)NFS.*disabled|NFS.*not.*running`), StatusDisabled},
	},
	ServiceCIFS: {
		{regexp.MustCompile(`(?i)CIFS is disabled`), StatusDisabled},
		{regexp.MustCompile(`(?i)CIFS.*enabled|CIFS.*active`), StatusEnabled},
	},
	ServiceNDMP: {
		{regexp.MustCompile(`(?i)NDMP daemon admin_state: disabled`), StatusDisabled},
		{regexp.MustCompile(`(?i)NDMP daemon admin_state: enabled`), StatusEnabled},
	},
	ServiceCloudTier: {
		{regexp.MustCompile(`CLOUD TIER.*:`), StatusEnabled},
		{regexp.MustCompile(`Cloud Unit:`), StatusEnabled},
		{regexp.MustCompile(`(?i)cloud.*disabled`), StatusDisabled},
	},
	ServiceReplication: {
		{regexp.MustCompile(`(?i)Enabled:\s+yes`), StatusEnabled},
		{regexp.MustCompile(`(?i)Enabled:\s+no|replication.*disabled`), StatusDisabled},
		{regexp.MustCompile(`Replication Status`), StatusConfigured},
	},
}

// ClassifyService returns the status of the first rule of service that
// matches text, or StatusUnknown.
func ClassifyService(text, service string) Status {
	for _, rule := range serviceRules[service] {
		if rule.pattern.MatchString(text) {
			return rule.status
		}
	}
	return StatusUnknown
}

// ClassifyServices classifies every allowlisted service
func ClassifyServices(text string) []ServiceStatus {
	out := make([]ServiceStatus, 0, len(ServiceNames))
	for _, name := range ServiceNames {
		out = append(out, ServiceStatus{Service: name, Status: ClassifyService(text, name)})
	}
	return out
}

func unknownServices() []ServiceStatus {
	out := make([]ServiceStatus, 0, len(ServiceNames))
	for _, name := range ServiceNames {
		out = append(out, ServiceStatus{Service: name, Status: StatusUnknown})
	}
	return out
}
