// Package action реализует HTTP action: шаблонное определение, которое
// превращается в один исходящий HTTP запрос и, при необходимости, в ответ
// вызывающему.
//
// # Конвейер
//
// Вызов проходит четыре этапа, каждый возвращает новое значение State:
//
//	Config Resolver   — определение + контекст вызывающего → Config
//	Request Builder   — Config + входящие заголовки → RequestDescriptor
//	Response Binder   — Transport.Send, затем повторное разрешение
//	                    исходного определения по телу ответа
//	Output Dispatcher — responseMapping решает, что отправить в ResponseSink
//
// # Определение
//
//	name: get-user
//	url: "https://api.example.com/users/{{ params.id }}"
//	method: get
//	passThroughHeaders: [authorization]
//	headers:
//	  x-source: conduit
//	responseMapping:
//	  userName: "{{ name }}"
//
// passThroughHeaders: true — пробросить все входящие заголовки, список —
// только перечисленные. responseMapping: true — вернуть сырое тело, объект —
// вернуть шаблон, разрешённый по телу ответа.
//
// # Ошибки
//
//   - *engine.ValidationError — определение не прошло схему (любой проход)
//   - *TransportError — запрос не выполнен (сеть, таймаут, отмена)
//
// HTTP статусы ответа ошибками не являются.
//
// # Registry
//
//	registry := action.DefaultRegistry(nil)
//	a, err := registry.For(definition) // по полю type, пусто = http
package action
