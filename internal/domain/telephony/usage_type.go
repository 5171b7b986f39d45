package telephony

// UsageType identifies the kind of billable telephony event
type UsageType string

const (
	UsageTypeCallInbound  UsageType = "call_inbound"
	UsageTypeCallOutbound UsageType = "call_outbound"
	UsageTypeSMSInbound   UsageType = "sms_inbound"
	UsageTypeSMSOutbound  UsageType = "sms_outbound"
	UsageTypeMMSInbound   UsageType = "mms_inbound"
	UsageTypeMMSOutbound  UsageType = "mms_outbound"
)

// AllUsageTypes returns every valid usage type
func AllUsageTypes() []UsageType {
	return []UsageType{
		UsageTypeCallInbound,
		UsageTypeCallOutbound,
		UsageTypeSMSInbound,
		UsageTypeSMSOutbound,
		UsageTypeMMSInbound,
		UsageTypeMMSOutbound,
	}
}

// IsValid checks if the usage type is valid
func (t UsageType) IsValid() bool {
	switch t {
	case UsageTypeCallInbound, UsageTypeCallOutbound,
		UsageTypeSMSInbound, UsageTypeSMSOutbound,
		UsageTypeMMSInbound, UsageTypeMMSOutbound:
		return true
	}
	return false
}

// String returns the string representation of UsageType
func (t UsageType) String() string {
	return string(t)
}

// IsCall returns true for voice call usage
func (t UsageType) IsCall() bool {
	return t == UsageTypeCallInbound || t == UsageTypeCallOutbound
}

// IsMessage returns true for SMS or MMS usage
func (t UsageType) IsMessage() bool {
	return !t.IsCall() && t.IsValid()
}

// IsInbound returns true for inbound usage
func (t UsageType) IsInbound() bool {
	switch t {
	case UsageTypeCallInbound, UsageTypeSMSInbound, UsageTypeMMSInbound:
		return true
	}
	return false
}

// UsageClass groups usage types by the provider identifier namespace.
// Call SIDs and message SIDs come from separate provider sequences, so
// duplicate detection on the provider reference is scoped per class.
type UsageClass string

const (
	UsageClassCall    UsageClass = "call"
	UsageClassMessage UsageClass = "message"
)

// Class returns the provider identifier namespace for the usage type
func (t UsageType) Class() UsageClass {
	if t.IsCall() {
		return UsageClassCall
	}
	return UsageClassMessage
}

// CallType returns the usage type for a call with the given direction
func CallType(inbound bool) UsageType {
	if inbound {
		return UsageTypeCallInbound
	}
	return UsageTypeCallOutbound
}

// MessageType returns the usage type for a message with the given
// direction and media count (any media makes it MMS)
func MessageType(inbound bool, numMedia int) UsageType {
	switch {
	case numMedia > 0 && inbound:
		return UsageTypeMMSInbound
	case numMedia > 0:
		return UsageTypeMMSOutbound
	case inbound:
		return UsageTypeSMSInbound
	default:
		return UsageTypeSMSOutbound
	}
}
