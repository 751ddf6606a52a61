//go:build linux

package notify

import (
	"github.com/godbus/dbus/v5"
)

const notifyIface = "org.freedesktop.Notifications"

type dbusNotifier struct {
	obj dbus.BusObject
}

// New connects to the session bus and returns a desktop notifier. When no
// session bus is reachable (headless session, no D-Bus) it degrades to a
// notifier that silently drops everything.
func New() (Notifier, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return &stubNotifier{}, nil //nolint:nilerr
	}
	return &dbusNotifier{
		obj: conn.Object(notifyIface, "/org/freedesktop/Notifications"),
	}, nil
}

func (n *dbusNotifier) Notify(notif Notification) (uint32, error) {
	hints := map[string]dbus.Variant{
		"urgency":       dbus.MakeVariant(byte(notif.Urgency)),
		"desktop-entry": dbus.MakeVariant("resona"),
	}
	call := n.obj.Call(notifyIface+".Notify", 0,
		"Resona", notif.ReplacesID, notif.Icon, notif.Title, notif.Body,
		[]string{}, hints, notif.Timeout)
	if call.Err != nil {
		return 0, call.Err
	}
	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (n *dbusNotifier) Close(id uint32) error {
	return n.obj.Call(notifyIface+".CloseNotification", 0, id).Err
}

type stubNotifier struct{}

func (stubNotifier) Notify(Notification) (uint32, error) { return 0, nil }

func (stubNotifier) Close(uint32) error { return nil }
