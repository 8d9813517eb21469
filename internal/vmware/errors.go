package vmware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vmware/govmomi/fault"
	"github.com/vmware/govmomi/vim25/soap"
	"github.com/vmware/govmomi/vim25/types"
)

// loginFailureMessages match SOAP faults that reject credentials without
// carrying an InvalidLogin detail.
var loginFailureMessages = []string{
	"login failure",
	"incorrect user name or password",
}

// Kind classifies fatal vSphere failures so callers can report them distinctly.
type Kind int

const (
	// KindConnectivity means the endpoint could not be reached or did not answer.
	KindConnectivity Kind = iota + 1
	// KindAuth means the endpoint rejected the supplied credentials.
	KindAuth
	// KindCredentials means the credentials were malformed before any login was attempted.
	KindCredentials
	// KindInventory means the VM inventory could not be enumerated.
	KindInventory
)

func (k Kind) String() string {
	switch k {
	case KindConnectivity:
		return "connectivity"
	case KindAuth:
		return "authentication"
	case KindCredentials:
		return "credentials"
	case KindInventory:
		return "inventory"
	default:
		return "unknown"
	}
}

// Error is a classified vSphere failure
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s error", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// IsKind reports whether err is, or wraps, an *Error of the given kind
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf returns the kind of a classified error, or zero if err is not one.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// classifyLoginError maps a raw login error to a Kind. Only an InvalidLogin
// fault, or a bare SOAP fault saying the same, is an auth failure. Every
// other fault or transport error is KindConnectivity.
func classifyLoginError(err error) Kind {
	if fault.Is(err, &types.InvalidLogin{}) {
		return KindAuth
	}
	if soap.IsSoapFault(err) {
		f := soap.ToSoapFault(err)
		if f.Detail.Fault == nil {
			msg := strings.ToLower(f.String)
			for _, m := range loginFailureMessages {
				if strings.Contains(msg, m) {
					return KindAuth
				}
			}
		}
	}
	return KindConnectivity
}
