package modem

import (
	"context"
	"fmt"

	"i4.energy/across/simaccess/at"
)

// bearerConnected is the +SAPBR status of an open bearer.
const bearerConnected = 1

// Operator reports the network operator the modem is registered with.
func (m *Modem) Operator(ctx context.Context) (at.Operator, error) {
	lines, err := m.Execute(ctx, at.QueryOperator())
	if err != nil {
		return at.Operator{}, err
	}
	return at.ParseOperator(lines)
}

// SignalQuality reports received signal strength and bit error rate.
func (m *Modem) SignalQuality(ctx context.Context) (at.Signal, error) {
	lines, err := m.Execute(ctx, at.SignalQuality())
	if err != nil {
		return at.Signal{}, err
	}
	return at.ParseSignal(lines)
}

// AttachNetwork configures apn and brings up the GPRS context.
func (m *Modem) AttachNetwork(ctx context.Context, apn string) error {
	if _, err := m.Execute(ctx, at.SetAPN(apn)); err != nil {
		return fmt.Errorf("set APN %q: %w", apn, err)
	}
	cmd := at.BringUpWireless().WithMaxEmptyReads(m.config.NetworkMaxEmptyReads)
	if _, err := m.Execute(ctx, cmd); err != nil {
		return fmt.Errorf("bring up wireless connection: %w", err)
	}
	m.updateState(func(s *State) { s.NetworkUp = true })
	m.logger.Info("network attached", "apn", apn)
	return nil
}

// OpenBearer opens the GPRS bearer used by the module's application
// services and returns its IP address.
func (m *Modem) OpenBearer(ctx context.Context, apn string) (string, error) {
	steps := []struct {
		cmd  at.Command
		what string
	}{
		{at.BearerParam("Contype", "GPRS"), "set bearer type"},
		{at.BearerParam("APN", apn), "set bearer APN"},
		{at.BearerOpen().WithMaxEmptyReads(m.config.NetworkMaxEmptyReads), "open bearer"},
	}
	for _, s := range steps {
		if _, err := m.Execute(ctx, s.cmd); err != nil {
			return "", fmt.Errorf("%s: %w", s.what, err)
		}
	}

	lines, err := m.Execute(ctx, at.BearerQuery())
	if err != nil {
		return "", fmt.Errorf("query bearer: %w", err)
	}
	status, ip, err := at.ParseBearer(lines)
	if err != nil {
		return "", err
	}
	if status != bearerConnected {
		return "", fmt.Errorf("bearer not connected, status %d", status)
	}

	m.updateState(func(s *State) { s.BearerIP = ip })
	m.logger.Info("bearer open", "apn", apn, "ip", ip)
	return ip, nil
}

// CloseBearer releases the bearer opened by OpenBearer.
func (m *Modem) CloseBearer(ctx context.Context) error {
	cmd := at.BearerClose().WithMaxEmptyReads(m.config.NetworkMaxEmptyReads)
	if _, err := m.Execute(ctx, cmd); err != nil {
		return err
	}
	m.updateState(func(s *State) { s.BearerIP = "" })
	return nil
}

// SetGPSPower switches the GNSS receiver on or off.
func (m *Modem) SetGPSPower(ctx context.Context, on bool) error {
	_, err := m.Execute(ctx, at.GNSSPower(on))
	return err
}

// GPSInfo returns the current navigation report.
func (m *Modem) GPSInfo(ctx context.Context) (at.GNSSFix, error) {
	lines, err := m.Execute(ctx, at.GNSSInfo())
	if err != nil {
		return at.GNSSFix{}, err
	}
	return at.ParseGNSS(lines)
}
