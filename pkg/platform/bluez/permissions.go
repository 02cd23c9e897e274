package bluez

import (
	"context"

	"github.com/godbus/dbus/v5"

	"github.com/spacecrew/btscan/internal/log"
)

// Permissions reports whether the D-Bus policy lets this process talk to the adapter. BlueZ has no
// runtime prompt; access is granted by membership in the bluetooth group or a polkit rule.
type Permissions struct {
	conn *dbus.Conn
	path dbus.ObjectPath
}

func (p *Permissions) Granted(ctx context.Context) (bool, error) {
	var xml string
	err := p.conn.Object(busName, p.path).CallWithContext(ctx, introspectable+".Introspect", 0).Store(&xml)
	switch errorName(err) {
	case "":
		if err != nil {
			return false, translateError("check permissions", err)
		}
		return true, nil
	case errAccessDenied, errNotAuthorized:
		return false, nil
	}
	return false, translateError("check permissions", err)
}

// Request cannot prompt the user, so it re-checks access and logs what needs to change.
func (p *Permissions) Request(ctx context.Context) (bool, error) {
	granted, err := p.Granted(ctx)
	if err == nil && !granted {
		log.Warning("Access to %s was denied. Add this user to the bluetooth group and log in again.", p.path)
	}
	return granted, err
}
