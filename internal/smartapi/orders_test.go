package smartapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	errs "github.com/BooraVinay/AlgoTradeEngine/internal/errors"
	"github.com/BooraVinay/AlgoTradeEngine/internal/models"
)

func orderServer(t *testing.T, path string, capture *map[string]interface{}, env func(w http.ResponseWriter)) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != path {
			t.Errorf("unexpected path %s, want %s", r.URL.Path, path)
		}
		if capture != nil {
			json.NewDecoder(r.Body).Decode(capture)
		}
		env(w)
	}))
}

func TestPlaceOrderWirePayload(t *testing.T) {
	var got map[string]interface{}
	srv := orderServer(t, placePath, &got, func(w http.ResponseWriter) {
		writeEnvelope(w, true, "SUCCESS", "", map[string]string{
			"script":        "SBIN-EQ",
			"orderid":       "240801000001",
			"uniqueorderid": "uo-1",
		})
	})
	defer srv.Close()

	client := newTestClient(srv.URL)
	sess := authedSession("jwt-valid")

	result, err := client.PlaceOrder(context.Background(), sess, OrderRequest{
		TradingSymbol:   "SBIN-EQ",
		SymbolToken:     "3045",
		TransactionType: models.TransactionBuy,
		Exchange:        models.NSE,
		OrderType:       models.OrderTypeMarket,
		ProductType:     models.ProductIntraday,
		Quantity:        5,
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if result.OrderID != "240801000001" || result.UniqueOrderID != "uo-1" {
		t.Errorf("result %+v", result)
	}

	want := map[string]string{
		"variety":         "NORMAL",
		"tradingsymbol":   "SBIN-EQ",
		"symboltoken":     "3045",
		"transactiontype": "BUY",
		"exchange":        "NSE",
		"ordertype":       "MARKET",
		"producttype":     "INTRADAY",
		"duration":        "DAY",
		"price":           "0",
		"quantity":        "5",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("payload %s = %v, want %q", k, got[k], v)
		}
	}
}

func TestPlaceOrderClampsQuantity(t *testing.T) {
	var got map[string]interface{}
	srv := orderServer(t, placePath, &got, func(w http.ResponseWriter) {
		writeEnvelope(w, true, "SUCCESS", "", map[string]string{"orderid": "1"})
	})
	defer srv.Close()

	client := newTestClient(srv.URL)
	sess := authedSession("jwt-valid")

	_, err := client.PlaceOrder(context.Background(), sess, OrderRequest{
		TradingSymbol:   "SBIN-EQ",
		SymbolToken:     "3045",
		TransactionType: models.TransactionBuy,
		Exchange:        models.NSE,
		OrderType:       models.OrderTypeMarket,
		Quantity:        0,
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if got["quantity"] != "1" {
		t.Errorf("quantity = %v, want \"1\"", got["quantity"])
	}
}

func TestPlaceOrderRejectionCarriesBrokerMessage(t *testing.T) {
	srv := orderServer(t, placePath, nil, func(w http.ResponseWriter) {
		writeEnvelope(w, false, "Insufficient funds to place order", "AB1010", nil)
	})
	defer srv.Close()

	client := newTestClient(srv.URL)
	sess := authedSession("jwt-valid")

	_, err := client.PlaceOrder(context.Background(), sess, OrderRequest{
		TradingSymbol:   "SBIN-EQ",
		SymbolToken:     "3045",
		TransactionType: models.TransactionBuy,
		Exchange:        models.NSE,
		Quantity:        1,
	})
	var rejected *errs.OrderRejectedError
	if !errs.As(err, &rejected) {
		t.Fatalf("want *OrderRejectedError, got %T: %v", err, err)
	}
	if rejected.Message != "Insufficient funds to place order" {
		t.Errorf("Message = %q", rejected.Message)
	}
}

func TestModifyOrderOmitsUnsetFields(t *testing.T) {
	var got map[string]interface{}
	srv := orderServer(t, modifyPath, &got, func(w http.ResponseWriter) {
		writeEnvelope(w, true, "SUCCESS", "", map[string]string{"orderid": "240801000001"})
	})
	defer srv.Close()

	client := newTestClient(srv.URL)
	sess := authedSession("jwt-valid")

	_, err := client.ModifyOrder(context.Background(), sess, "240801000001", ModifyRequest{
		Price: "512.40",
	})
	if err != nil {
		t.Fatalf("ModifyOrder: %v", err)
	}

	if got["variety"] != "NORMAL" {
		t.Errorf("variety = %v", got["variety"])
	}
	if got["orderid"] != "240801000001" {
		t.Errorf("orderid = %v", got["orderid"])
	}
	if got["price"] != "512.40" {
		t.Errorf("price = %v", got["price"])
	}
	for _, key := range []string{"ordertype", "producttype", "duration", "quantity", "tradingsymbol", "symboltoken", "exchange"} {
		if _, present := got[key]; present {
			t.Errorf("unset field %q was sent on the wire", key)
		}
	}
}

func TestCancelOrderPayload(t *testing.T) {
	var got map[string]interface{}
	srv := orderServer(t, cancelPath, &got, func(w http.ResponseWriter) {
		writeEnvelope(w, true, "SUCCESS", "", map[string]string{"orderid": "240801000002"})
	})
	defer srv.Close()

	client := newTestClient(srv.URL)
	sess := authedSession("jwt-valid")

	result, err := client.CancelOrder(context.Background(), sess, "240801000002")
	if err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}
	if result.OrderID != "240801000002" {
		t.Errorf("result %+v", result)
	}
	if got["variety"] != "NORMAL" || got["orderid"] != "240801000002" {
		t.Errorf("payload %v", got)
	}
}

func TestOrderBookHandlesNullData(t *testing.T) {
	srv := orderServer(t, orderBookPath, nil, func(w http.ResponseWriter) {
		writeEnvelope(w, true, "SUCCESS", "", nil)
	})
	defer srv.Close()

	client := newTestClient(srv.URL)
	sess := authedSession("jwt-valid")

	orders, err := client.GetOrderBook(context.Background(), sess)
	if err != nil {
		t.Fatalf("GetOrderBook: %v", err)
	}
	if len(orders) != 0 {
		t.Errorf("orders = %+v, want empty", orders)
	}
}

func TestOrderBookPreservesBrokerOrder(t *testing.T) {
	srv := orderServer(t, orderBookPath, nil, func(w http.ResponseWriter) {
		writeEnvelope(w, true, "SUCCESS", "", []map[string]string{
			{"orderid": "3"}, {"orderid": "1"}, {"orderid": "2"},
		})
	})
	defer srv.Close()

	client := newTestClient(srv.URL)
	sess := authedSession("jwt-valid")

	orders, err := client.GetOrderBook(context.Background(), sess)
	if err != nil {
		t.Fatalf("GetOrderBook: %v", err)
	}
	want := []string{"3", "1", "2"}
	for i, id := range want {
		if orders[i].OrderID != id {
			t.Errorf("orders[%d].OrderID = %q, want %q", i, orders[i].OrderID, id)
		}
	}
}

func TestOrderDetailsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, false, "Order not found", "AB1009", nil)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	sess := authedSession("jwt-valid")

	_, err := client.GetOrderDetails(context.Background(), sess, "no-such-id")
	if !errs.Is(err, errs.ErrOrderNotFound) {
		t.Fatalf("want ErrOrderNotFound, got %v", err)
	}
}

func TestOrderDetailsByUniqueID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != detailsPath+"uo-77" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		writeEnvelope(w, true, "SUCCESS", "", map[string]string{
			"orderid":       "240801000003",
			"uniqueorderid": "uo-77",
			"orderstatus":   "complete",
		})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	sess := authedSession("jwt-valid")

	order, err := client.GetOrderDetails(context.Background(), sess, "uo-77")
	if err != nil {
		t.Fatalf("GetOrderDetails: %v", err)
	}
	if order.UniqueOrderID != "uo-77" || order.OrderStatus != "complete" {
		t.Errorf("order %+v", order)
	}
}
