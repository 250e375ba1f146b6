package payments

import "fmt"

type PaymentManager struct {
	gateways map[string]Gateway
}

func NewPaymentManager() *PaymentManager {
	return &PaymentManager{gateways: make(map[string]Gateway)}
}

func (m *PaymentManager) RegisterGateway(name string, gateway Gateway) {
	m.gateways[name] = gateway
}

// Gateway resolves the gateway stored on a payment's provider column.
func (m *PaymentManager) Gateway(name string) (Gateway, error) {
	gateway, ok := m.gateways[name]
	if !ok {
		return nil, fmt.Errorf("gateway not registered: %s", name)
	}
	return gateway, nil
}
