package workflow

// SignatureKey identifies the role slot a workflow step requires a signature under
type SignatureKey string

const (
	KeySender      SignatureKey = "sender"
	KeyReceiver    SignatureKey = "receiver"
	KeyAdmin       SignatureKey = "admin"
	KeyHC          SignatureKey = "hc"
	KeyBlockLeader SignatureKey = "blockLeader"
	KeyKT          SignatureKey = "kt"
	KeyDeptLeader  SignatureKey = "deptLeader"
	KeyDirector    SignatureKey = "director"
)

// String returns the string representation of the signature key
func (k SignatureKey) String() string {
	return string(k)
}
