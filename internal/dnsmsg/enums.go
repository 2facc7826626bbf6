package dnsmsg

// QueryType is the value carried in the "dns.qry.type" field.
type QueryType int

const (
	TypeA  QueryType = 1
	TypeNS QueryType = 2
)

// RCode is the value carried in the "dns.flags.rcode" field.
//
// https://support.umbrella.com/hc/en-us/articles/232254248
type RCode int

const (
	RCodeNoError  RCode = 0 // DNS query completed successfully
	RCodeFormErr  RCode = 1 // DNS query format error
	RCodeServFail RCode = 2 // Server failed to complete the DNS request
	RCodeNXDomain RCode = 3 // Domain name does not exist
	RCodeNotImp   RCode = 4 // Function not implemented
	RCodeRefused  RCode = 5 // The server refused to answer for the query
	RCodeYXDomain RCode = 6 // Name that should not exist, does exist
	RCodeXRRSet   RCode = 7 // RR set that should not exist, does exist
	RCodeNotAuth  RCode = 8 // Server not authoritative for the zone
	RCodeNotZone  RCode = 9 // Name not in zone
)
