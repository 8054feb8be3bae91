// Package cmd provides shared initialization for the cascade binaries.
package cmd

import (
	"log/slog"

	"github.com/driftlabs/cascade/pkg/actions/add_tag"
	"github.com/driftlabs/cascade/pkg/actions/create_deal"
	"github.com/driftlabs/cascade/pkg/actions/send_notification"
	"github.com/driftlabs/cascade/pkg/actions/webhook"
	"github.com/driftlabs/cascade/pkg/crm"
	"github.com/driftlabs/cascade/pkg/notify"
	"github.com/driftlabs/cascade/pkg/registry"
)

func NewRegistry(logger *slog.Logger, store crm.Store, notifier notify.Notifier) *registry.Registry {
	reg := registry.NewRegistry(logger)

	reg.RegisterAction(create_deal.NewFactory(store))
	reg.RegisterAction(add_tag.NewFactory(store))
	reg.RegisterAction(send_notification.NewFactory(notifier))
	reg.RegisterAction(webhook.NewFactory())

	return reg
}
