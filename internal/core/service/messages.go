package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
)

func cartAdded(name string, quantity int) domain.Notification {
	return domain.NewNotification(domain.NotificationSuccess, "Producto agregado",
		fmt.Sprintf("%dx %s agregado al carrito", quantity, name))
}

func cartUpdated(name string, quantity int) domain.Notification {
	return domain.NewNotification(domain.NotificationInfo, "Carrito actualizado",
		fmt.Sprintf("%s actualizado a %d unidades", name, quantity))
}

func cartRemoved(name string) domain.Notification {
	return domain.NewNotification(domain.NotificationInfo, "Producto removido",
		fmt.Sprintf("%s removido del carrito", name))
}

func cartCleared() domain.Notification {
	return domain.NewNotification(domain.NotificationInfo, "Carrito vaciado",
		"Todos los productos han sido removidos")
}

func stockExceeded(p domain.Product) domain.Notification {
	return domain.NewNotification(domain.NotificationWarning, "Stock limitado",
		fmt.Sprintf("Solo tenemos %d unidades disponibles de %s", p.StockCount, p.Name))
}

func storageReadFailed() domain.Notification {
	return domain.NewNotification(domain.NotificationError, "Error al cargar el carrito",
		"No se pudo recuperar el carrito guardado. Se inició un carrito vacío.")
}

func storageWriteFailed() domain.Notification {
	return domain.NewNotification(domain.NotificationWarning, "Error al guardar el carrito",
		"Los cambios del carrito solo se conservarán en esta sesión")
}

func checkoutEmptyCart() domain.Notification {
	return domain.NewNotification(domain.NotificationWarning, "Carrito vacío",
		"Agrega productos al carrito antes de proceder al checkout")
}

func checkoutIncompleteForm() domain.Notification {
	return domain.NewNotification(domain.NotificationWarning, "Formulario incompleto",
		"Por favor complete todos los campos requeridos")
}

func paymentProcessing() domain.Notification {
	return domain.NewNotification(domain.NotificationInfo, "Procesando pago",
		"Por favor espera mientras procesamos tu pago...").WithTTL(3 * time.Second)
}

func paymentSucceeded(total decimal.Decimal) domain.Notification {
	return domain.NewNotification(domain.NotificationSuccess, "Pago exitoso",
		fmt.Sprintf("Tu pago de $%s ha sido procesado correctamente", total.StringFixed(2)))
}

func paymentFailed(message string) domain.Notification {
	if message == "" {
		message = domain.CodeProcessingError.Message()
	}
	return domain.NewNotification(domain.NotificationError, "Error en el pago", message)
}

func refundSucceeded(amount decimal.Decimal) domain.Notification {
	return domain.NewNotification(domain.NotificationSuccess, "Reembolso procesado",
		fmt.Sprintf("Se reembolsaron $%s", amount.StringFixed(2)))
}

func refundFailed(message string) domain.Notification {
	return domain.NewNotification(domain.NotificationError, "Error en el reembolso", message)
}
