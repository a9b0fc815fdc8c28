package transport

import "github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/model"

func toOrderView(o *model.Order) *OrderView {
	if o == nil {
		return nil
	}
	v := &OrderView{
		OrderID:   o.OrderID.String(),
		Symbol:    o.Symbol,
		Side:      string(o.Side),
		Kind:      string(o.Kind),
		Status:    string(o.Status),
		Quantity:  o.QuantityOriginal,
		Remaining: o.QuantityRemaining,
	}
	if o.HasLimitPrice {
		v.LimitPrice = o.LimitPrice
	}
	if o.HasStopPrice {
		v.StopPrice = o.StopPrice
	}
	return v
}

func toTradeViews(trades []*model.Trade) []TradeView {
	if len(trades) == 0 {
		return nil
	}
	out := make([]TradeView, len(trades))
	for i, t := range trades {
		out[i] = TradeView{
			TradeID:      t.TradeID,
			Symbol:       t.Symbol,
			Price:        t.Price,
			Quantity:     t.Quantity,
			MakerOrderID: t.MakerOrderID.String(),
			TakerOrderID: t.TakerOrderID.String(),
			MakerSide:    string(t.MakerSide),
			MakerFee:     t.MakerFee,
			TakerFee:     t.TakerFee,
			Timestamp:    t.Timestamp,
		}
	}
	return out
}

func toDepthResponse(symbol string, d model.Depth) DepthResponse {
	resp := DepthResponse{Symbol: symbol}
	for _, l := range d.Bids {
		resp.Bids = append(resp.Bids, LevelView{Price: l.Price, Quantity: l.Quantity})
	}
	for _, l := range d.Asks {
		resp.Asks = append(resp.Asks, LevelView{Price: l.Price, Quantity: l.Quantity})
	}
	return resp
}

func toBBOResponse(b model.BBO) BBOResponse {
	return BBOResponse{
		Symbol:   b.Symbol,
		HasBid:   b.HasBid,
		BidPrice: b.BidPrice,
		BidQty:   b.BidQty,
		HasAsk:   b.HasAsk,
		AskPrice: b.AskPrice,
		AskQty:   b.AskQty,
	}
}
